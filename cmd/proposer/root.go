package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "proposer",
	Short: "Proposer validates candidate requests and runs proposal strategies",
	Long: `Proposer accepts requests for new experimental candidates over a declared
domain, tracks them as proposals through CREATED, CLAIMED, FINISHED and FAILED,
and runs the requested strategy in a background worker.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
}
