package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/starworks/depot/pkg/core"
)

var exportCmd = &cobra.Command{
	Use:   "export [KEY...]",
	Short: "Export files as a tar.gz archive",
	Long: `Export file entries as a gzip compressed tar archive.

Without keys, every file in the depot is exported. A failing member does
not abort the export: it is skipped and recorded in the manifest.yaml
written as the last archive entry.`,
	Example: `% depot export --output backup.tar.gz
% depot export 0b2d...41 9f1c...7a --output two-files.tar.gz`,
	Run: func(cmd *cobra.Command, args []string) {
		out, err := os.Create(depotFlags.export.Output)
		if err != nil {
			wrapFatalln("create archive file", err)
			return
		}
		defer out.Close()

		if depotFlags.export.Concurrency > 0 {
			config.Concurrency = depotFlags.export.Concurrency
		}
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		ctx := context.Background()
		var manifest core.ExportManifest
		if len(args) > 0 {
			manifest, err = engine.BulkExport(ctx, args, out)
		} else {
			manifest, err = engine.ExportAll(ctx, out)
		}
		if err != nil {
			fatalOnErr("export", err)
			return
		}

		failed := 0
		for _, entry := range manifest.Entries {
			if !entry.Ok() {
				failed++
				infoLogger.Println("skipped:", entry.Key, "-", entry.Error)
			}
		}
		infoLogger.Println("exported", len(manifest.Entries)-failed, "of", len(manifest.Entries), "entries to", depotFlags.export.Output)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&depotFlags.export.Output,
		"output", "o", "", "path of the archive to write")
	exportCmd.Flags().IntVar(&depotFlags.export.Concurrency,
		"concurrency", 0, "parallel blob fetches (defaults to the configured value)")
	_ = exportCmd.MarkFlagRequired("output")
}
