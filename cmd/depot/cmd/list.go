package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/starworks/depot/pkg/model"
)

var listCmd = &cobra.Command{
	Use:   "ls [KEY]",
	Short: "List entries",
	Long: `List the direct children of a folder.

Without a key, every file entry in the depot is listed.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		ctx := context.Background()
		var entries []model.TreeEntry
		if len(args) == 1 {
			entries, err = engine.ListChildren(ctx, args[0])
		} else {
			entries, err = engine.ListFiles(ctx)
		}
		if err != nil {
			fatalOnErr("list entries", err)
			return
		}
		for _, entry := range entries {
			printEntryLine(entry)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
