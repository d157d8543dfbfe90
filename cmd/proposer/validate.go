package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/proposer/internal/cli"
	"github.com/spf13/cobra"
)

var errInvalidDocument = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a request or proposal document",
	Long: `Validates a JSON or YAML document as a candidates request or a proposal.
Without --kind, documents carrying lifecycle fields (state, error_message,
last_updated_at, candidates) are checked as proposals.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")

		checked, err := cli.ValidateFile(args[0], kind)
		if err != nil {
			if errors.Is(err, cli.ErrUnknownKind) {
				return err
			}
			cli.PrintReport(cmd.OutOrStdout(), err)
			return errInvalidDocument
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid %s\n", args[0], checked)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("kind", "k", "", "Document kind: request or proposal (default: detect)")
}
