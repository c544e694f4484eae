package cli

import (
	"dataset_downloader/internal/fetch"
	"dataset_downloader/internal/manifest"
	"dataset_downloader/models"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the datasets in the manifest",
	Long:  `Print every dataset in the manifest along with whether it is already present in the data directory.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		list, err := manifest.Load(fs, activeSettings.ManifestPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatManifestTable(fs, list, activeSettings.DataDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func formatManifestTable(fs afero.Fs, list *models.Manifest, dataDir string) string {
	if list.Len() == 0 {
		return "No datasets in manifest."
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 50
	tbl.AddRow("#", "NAME", "SIZE", "FILE ID", "LOCAL", "DESCRIPTION")
	for i, d := range list.Datasets {
		local := "-"
		if size, err := fetch.Verify(fs, filepath.Join(dataDir, d.Name)); err == nil {
			local = humanize.Bytes(uint64(size))
		}
		tbl.AddRow(i+1, d.Name, humanize.Bytes(uint64(d.SizeGB*1e9)), d.FileID, local, d.Description)
	}
	return tbl.String()
}
