package cli

import (
	"dataset_downloader/internal/config"
	"dataset_downloader/internal/state"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show datasets processed by previous runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := state.Open(config.GetHistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatHistoryTable(records))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func formatHistoryTable(records []state.Record) string {
	if len(records) == 0 {
		return "No downloads recorded yet."
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.AddRow("WHEN", "RUN", "DATASET", "STATUS", "SIZE", "PATH")
	for _, r := range records {
		size := "-"
		if r.Bytes > 0 {
			size = humanize.Bytes(uint64(r.Bytes))
		}
		tbl.AddRow(humanize.Time(r.CreatedAt), shortID(r.RunID), r.Name, r.Status, size, r.DestPath)
	}
	return tbl.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
