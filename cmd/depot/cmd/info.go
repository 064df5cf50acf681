package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info KEY",
	Short: "Show details of an entry",
	Long:  "Show the metadata of a folder or file entry, including content details for files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		entry, rec, err := engine.Resolve(context.Background(), args[0])
		if err != nil {
			fatalOnErr("resolve entry", err)
			return
		}
		printEntryInfo(entry, rec)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
