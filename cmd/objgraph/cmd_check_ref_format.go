package main

import (
	"fmt"

	"github.com/odvcencio/objgraph/pkg/refs"
	"github.com/spf13/cobra"
)

func newCheckRefFormatCmd() *cobra.Command {
	var branch bool

	cmd := &cobra.Command{
		Use:   "check-ref-format <name>",
		Short: "Validate a ref name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !refs.ValidName(name) {
				return fmt.Errorf("invalid ref name %q", name)
			}
			if branch {
				fmt.Fprintln(cmd.OutOrStdout(), refs.BranchName(name))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&branch, "branch", false, "print the full branch ref for name")
	return cmd
}
