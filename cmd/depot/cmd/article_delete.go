package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var articleDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete an article and everything in it",
	Long: `Delete an article and everything in it.

All folders and files of the article are removed. Stored content is
reclaimed unless another article still references it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		if err := engine.DeleteSubtree(context.Background(), args[0]); err != nil {
			fatalOnErr("delete article", err)
			return
		}
		infoLogger.Println("deleted", args[0])
	},
}

func init() {
	articleCmd.AddCommand(articleDeleteCmd)
}
