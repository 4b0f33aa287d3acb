package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelcast/internal/episode"
	"reelcast/internal/history"
)

const defaultHistoryLimit = 10

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [limit]",
		Short: "Show recent episode records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := defaultHistoryLimit
			if len(args) == 1 {
				n, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || n < 1 {
					return fmt.Errorf("invalid limit %q: must be a positive integer", args[0])
				}
				limit = n
			}

			return ctx.withStore(func(store *history.Store) error {
				records, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No episodes recorded yet")
					return nil
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(out, renderHistoryTable(records))
				fmt.Fprintf(out, "\nTotal: %d completed, %d failed\n", stats[episode.StatusCompleted], stats[episode.StatusFailed])
				return nil
			})
		},
	}
	cmd.AddCommand(newHistoryExportCommand(ctx), newHistoryImportCommand(ctx))
	return cmd
}

func newHistoryExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every episode record to stdout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				records, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				return history.EncodeRecords(cmd.OutOrStdout(), records)
			})
		},
	}
}

func newHistoryImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <records.json>",
		Short: "Append exported episode records to the continuity store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open records: %w", err)
			}
			defer file.Close()
			records, err := history.DecodeRecords(file)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *history.Store) error {
				if err := store.Import(cmd.Context(), records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s\n", len(records), args[0])
				return nil
			})
		},
	}
}

func renderHistoryTable(records []episode.Episode) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(rec.Number),
			string(rec.Status),
			rec.Story.Subject,
			rec.Story.Title,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			historyDetail(rec),
		})
	}
	return renderTable([]tableColumn{
		{Header: "Episode", Right: true},
		{Header: "Status"},
		{Header: "Dish", MaxWidth: 24},
		{Header: "Title", MaxWidth: 40},
		{Header: "Created"},
		{Header: "Detail", MaxWidth: 60},
	}, rows)
}

func historyDetail(rec episode.Episode) string {
	if rec.Failure != nil {
		return fmt.Sprintf("%s (%s): %s", rec.Failure.Stage, rec.Failure.Kind, rec.Failure.Message)
	}
	var parts []string
	if rec.Story.Fallback {
		parts = append(parts, "fallback story")
	}
	if rec.Artifact != nil && rec.Artifact.Provenance != episode.ProvenanceReal && rec.Artifact.Provenance != "" {
		parts = append(parts, fmt.Sprintf("%s video", rec.Artifact.Provenance))
	}
	switch {
	case rec.Publish == nil:
	case rec.Publish.Skipped:
		parts = append(parts, "publish skipped")
	case rec.Publish.URL != "":
		parts = append(parts, rec.Publish.URL)
	}
	return strings.Join(parts, "; ")
}
