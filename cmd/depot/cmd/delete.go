package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete an entry",
	Long: `Delete a file or folder entry.

Folders must be empty unless --recursive is given. Stored content is
reclaimed when the last entry referencing it is removed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		ctx := context.Background()
		if depotFlags.delete.Recursive {
			err = engine.DeleteSubtree(ctx, args[0])
		} else {
			err = engine.DeleteEntry(ctx, args[0])
		}
		if err != nil {
			fatalOnErr("delete entry", err)
			return
		}
		infoLogger.Println("deleted", args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&depotFlags.delete.Recursive,
		"recursive", "r", false, "delete a folder with everything in it")
}
