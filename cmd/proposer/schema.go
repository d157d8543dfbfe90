package main

import (
	"fmt"

	"github.com/aretw0/proposer/internal/cli"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Print the column types of a strategy's domain",
	Long: `Reads a strategy descriptor, or a request or proposal carrying one, and
prints the types that experiment inputs, candidates and outputs are checked against.

With --check, the types are compared against a file written by an earlier run
and every difference is listed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := cli.LoadStrategy(args[0])
		if err != nil {
			cli.PrintReport(cmd.OutOrStdout(), err)
			return errInvalidDocument
		}

		checkPath, _ := cmd.Flags().GetString("check")
		if checkPath == "" {
			return cli.PrintSchemas(cmd.OutOrStdout(), s)
		}

		want, err := cli.LoadSchemas(checkPath)
		if err != nil {
			return err
		}
		diffs := cli.DiffSchemas(want, cli.Schemas(s.Domain))
		if len(diffs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s matches %s\n", args[0], checkPath)
			return nil
		}
		for _, d := range diffs {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return fmt.Errorf("%d schema difference(s)", len(diffs))
	},
}

func init() {
	schemaCmd.Flags().String("check", "", "compare against schemas saved from an earlier run")
	rootCmd.AddCommand(schemaCmd)
}
