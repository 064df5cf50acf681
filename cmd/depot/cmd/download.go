package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/starworks/depot/pkg/storage"
)

var downloadCmd = &cobra.Command{
	Use:   "download KEY",
	Short: "Download a file",
	Long: `Download the content of a file entry.

The bytes are streamed to --output, or to stdout when no output path is
given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		rdr, _, _, err := engine.OpenStream(context.Background(), args[0])
		if err != nil {
			fatalOnErr("download", err)
			return
		}
		defer rdr.Close()

		out := os.Stdout
		if depotFlags.download.Output != "" {
			out, err = os.Create(depotFlags.download.Output)
			if err != nil {
				wrapFatalln("create output file", err)
				return
			}
			defer out.Close()
		}
		if _, err := storage.PipeIO(out, rdr); err != nil {
			wrapFatalln("write output", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&depotFlags.download.Output,
		"output", "", "destination path (defaults to stdout)")
}
