package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var dot bool
	var from string

	cmd := &cobra.Command{
		Use:   "graph <dir>...",
		Short: "Snapshot directories and print the object graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, opts)
			if err != nil {
				return err
			}
			if _, err := commitDirs(r, args, ""); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if from != "" {
				reach := r.Analyzer.Reachability(from)
				fmt.Fprintf(out, "reachable from %s: %d, unreachable: %d\n", from, len(reach.Reachable), len(reach.Unreachable))
				return nil
			}

			g := r.Analyzer.Build()
			if dot {
				return g.WriteDOT(out)
			}
			for _, e := range g.Edges {
				label := string(e.Kind)
				if e.Name != "" {
					label += " " + e.Name
				}
				fmt.Fprintf(out, "%s -> %s %s\n", e.From.Short(), e.To.Short(), label)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "render Graphviz DOT")
	cmd.Flags().StringVar(&from, "reachable-from", "", "print reachability counts from a ref instead")
	return cmd
}
