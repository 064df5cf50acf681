package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var articleCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create an article",
	Long:  "Create a new article: an empty root folder to upload files into",
	Example: `% depot article create "field notes 2026"
b5c1e4a2-93f1-43b3-826e-cf6a5bd00001 , folder , field notes 2026`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		root, err := engine.CreateRoot(context.Background(), args[0])
		if err != nil {
			fatalOnErr("create article", err)
			return
		}
		printEntryLine(root)
	},
}

func init() {
	articleCmd.AddCommand(articleCreateCmd)
}
