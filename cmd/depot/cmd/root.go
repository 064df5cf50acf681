// Package cmd implements the depot command line interface. Commands
// are thin adapters: they wire configuration into the core engine and
// map its error taxonomy to exit codes.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/starworks/depot/pkg/dlogger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "depot",
	Short: "Depot is a content-addressed file depot",
	Long: `Depot stores files once per unique content and organizes them in folder trees.

Uploads are hashed while streaming; identical content is stored a single time
regardless of how many entries reference it. Entries live in per-article folder
trees and can be listed, searched, downloaded, exported and deleted. Deleting
the last entry referencing some content reclaims the stored bytes.
`,
}

var config *CLIConfig

// used to patch over calls to os.Exit() during test
var (
	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&depotFlags.root.logLevel,
		"loglevel", dlogger.LogLevelInfo, "log level (info, debug, error, none)")
	rootCmd.PersistentFlags().StringVar(&depotFlags.root.config,
		"config", "", "config file (default depot.yaml in ., $HOME/.depot, /etc/depot)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("catalog", "depot.db")
	viper.SetDefault("store", "localfs")
	viper.SetDefault("path", ".depot/objects")

	switch {
	case depotFlags.root.config != "":
		viper.SetConfigFile(depotFlags.root.config)
	case os.Getenv("DEPOT_CONFIG") != "":
		viper.SetConfigFile(os.Getenv("DEPOT_CONFIG"))
	default:
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.depot")
		viper.AddConfigPath("/etc/depot")
		viper.SetConfigName("depot")
	}

	viper.SetEnvPrefix("depot")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
	}
}
