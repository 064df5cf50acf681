package cmd

import (
	"github.com/spf13/cobra"
)

// articleCmd groups commands acting on whole articles (tree roots)
var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Commands to manage articles",
	Long: `Commands to manage articles.

An article is an independent folder tree: a root folder with files and
subfolders underneath. Deleting an article removes the whole subtree.`,
}

func init() {
	rootCmd.AddCommand(articleCmd)
}
