package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// folderCmd groups commands acting on folders inside an article
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Commands to manage folders",
	Long:  "Commands to manage folders inside an article tree",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a folder",
	Long:  "Create a folder under an existing article root or folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		folder, err := engine.CreateFolder(context.Background(), args[0], depotFlags.folder.Parent)
		if err != nil {
			fatalOnErr("create folder", err)
			return
		}
		printEntryLine(folder)
	},
}

func init() {
	rootCmd.AddCommand(folderCmd)
	folderCmd.AddCommand(folderCreateCmd)

	folderCreateCmd.Flags().StringVar(&depotFlags.folder.Parent,
		"parent", "", "key of the parent folder")
	_ = folderCreateCmd.MarkFlagRequired("parent")
}
