package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/search"
)

type ingestOutput struct {
	DocumentID    string `json:"documentId"`
	FileName      string `json:"fileName"`
	FileType      string `json:"fileType"`
	SizeBytes     int64  `json:"sizeBytes"`
	ContentLength int    `json:"contentLength"`
	Created       bool   `json:"created"`
}

func newIngestCmd(c *cli) *cobra.Command {
	var owner, fileType, replace string
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Upload a PDF or DOCX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			app, release, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			in := documents.UploadInput{
				OwnerID:      owner,
				FileName:     filepath.Base(args[0]),
				DeclaredType: fileType,
				Data:         data,
			}
			var res documents.IngestResult
			if replace != "" {
				res, err = app.IngestService.Replace(cmd.Context(), replace, in)
			} else {
				res, err = app.IngestService.Upload(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			return c.printJSON(ingestOutput{
				DocumentID:    res.Document.ID,
				FileName:      res.Document.FileName,
				FileType:      string(res.Document.FileType),
				SizeBytes:     res.Document.SizeBytes,
				ContentLength: res.Length,
				Created:       res.Created,
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (UUID)")
	cmd.Flags().StringVar(&fileType, "type", "", "declared type: pdf or docx")
	cmd.Flags().StringVar(&replace, "replace", "", "re-upload into an existing document id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

type searchOutput struct {
	DocumentID    string  `json:"documentId"`
	FileName      string  `json:"fileName"`
	Start         int     `json:"start"`
	End           int     `json:"end"`
	Matched       string  `json:"matched"`
	Score         float64 `json:"score"`
	ContextBefore string  `json:"contextBefore"`
	ContextAfter  string  `json:"contextAfter"`
}

func newSearchCmd(c *cli) *cobra.Command {
	var req search.Request
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search ingested documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, release, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			started := time.Now()
			res, err := app.SearchService.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := make([]searchOutput, 0, len(res.Matches))
			for _, m := range res.Matches {
				out = append(out, searchOutput{
					DocumentID:    m.DocumentID,
					FileName:      m.Document.FileName,
					Start:         m.Start,
					End:           m.End,
					Matched:       m.Matched,
					Score:         m.Score,
					ContextBefore: m.ContextBefore,
					ContextAfter:  m.ContextAfter,
				})
			}
			if err := c.printJSON(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d matches in %d documents (%s)\n",
				len(out), res.Meta.TotalMatches, res.Meta.TotalDocuments, time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Query, "query", "q", "", "search text")
	cmd.Flags().BoolVar(&req.Exact, "exact", false, "match the phrase literally instead of by word forms")
	cmd.Flags().StringVar(&req.OwnerID, "owner", "", "restrict to an owner id")
	cmd.Flags().StringVar(&req.DocumentID, "document", "", "restrict to a document id")
	cmd.Flags().IntVar(&req.ContextBefore, "before", 50, "characters of context before each match")
	cmd.Flags().IntVar(&req.ContextAfter, "after", 50, "characters of context after each match")
	cmd.Flags().IntVar(&req.Limit, "limit", search.DefaultLimit, "maximum matches to print")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "matches to skip")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document, its text and its index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, release, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := app.IngestService.Delete(cmd.Context(), owner, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "require the document to belong to this owner")
	return cmd
}

func newReindexCmd(c *cli) *cobra.Command {
	var all bool
	var workers int
	cmd := &cobra.Command{
		Use:   "reindex [document-id]",
		Short: "Rebuild index entries from stored text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("pass either a document id or --all")
			}
			app, release, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !all {
				if err := app.IngestService.Reindex(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reindexed %s\n", args[0])
				return nil
			}
			n, err := app.IngestService.ReindexAll(cmd.Context(), workers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d documents\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "rebuild every document")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel rebuilds with --all")
	return cmd
}
