package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find PATTERN",
	Short: "Find entries by name",
	Long: `Find entries whose name contains the pattern, ignoring case.

The pattern is matched literally: wildcard characters have no special
meaning.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		hits, err := engine.FindByName(context.Background(), args[0])
		if err != nil {
			fatalOnErr("find entries", err)
			return
		}
		for _, entry := range hits {
			printEntryLine(entry)
		}
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
