package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the depot is reachable",
	Long:  "Check that the catalog database answers queries",
	Run: func(cmd *cobra.Command, args []string) {
		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		if err := engine.Ping(context.Background()); err != nil {
			wrapFatalWithCodef(exitUnavailable, "catalog unreachable: %v", err)
			return
		}
		infoLogger.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
