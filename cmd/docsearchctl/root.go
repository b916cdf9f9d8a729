package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jirafa27/DocumentSearcher/internal/bootstrap"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/db"
)

// cli carries what every subcommand needs. build returns the wired app and
// a release func the command calls when done.
type cli struct {
	out   io.Writer
	build func(ctx context.Context) (*bootstrap.App, func(), error)
}

func defaultCLI() *cli {
	return &cli{
		out: os.Stdout,
		build: func(ctx context.Context) (*bootstrap.App, func(), error) {
			opts := db.OptionsFromEnv(db.DefaultCLIOptions())
			app, err := bootstrap.BuildWithOptions(ctx, config.Load(), bootstrap.Options{
				SkipMigrations: true,
				DBOptions:      &opts,
			})
			if err != nil {
				return nil, nil, err
			}
			return app, func() { app.Close() }, nil
		},
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "docsearchctl",
		Short:         "Administer the document searcher",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)

	root.AddCommand(
		newMigrateCmd(),
		newIngestCmd(c),
		newSearchCmd(c),
		newDeleteCmd(c),
		newReindexCmd(c),
	)
	return root
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
