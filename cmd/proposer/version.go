package main

import (
	"fmt"

	"github.com/aretw0/proposer"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of proposer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "proposer version %s\n", proposer.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
