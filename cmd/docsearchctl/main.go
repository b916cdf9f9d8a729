// Command docsearchctl administers a document searcher deployment: schema
// migrations, ingestion from the shell, ad hoc searches and index rebuilds.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultCLI()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
