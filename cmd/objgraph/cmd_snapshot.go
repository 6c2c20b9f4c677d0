package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/objgraph/pkg/graph"
	"github.com/odvcencio/objgraph/pkg/refs"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(opts *globalOptions) *cobra.Command {
	var message string
	var tag string

	cmd := &cobra.Command{
		Use:   "snapshot <dir>...",
		Short: "Store directories as commits and print the resulting refs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, opts)
			if err != nil {
				return err
			}
			commits, err := commitDirs(r, args, message)
			if err != nil {
				return err
			}
			if tag != "" && !r.Refs.CreateTag(tag, commits[len(commits)-1]) {
				return fmt.Errorf("snapshot: invalid tag name %q", tag)
			}

			out := cmd.OutOrStdout()
			for _, c := range commits {
				fmt.Fprintf(out, "commit %s\n", c)
			}
			fmt.Fprintln(out)
			printRefs(out, r.Refs.All())
			fmt.Fprintln(out)
			printStats(out, r.Analyzer.Stats())
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&tag, "tag", "", "tag the last commit")
	return cmd
}

func printRefs(w io.Writer, all []refs.Ref) {
	for _, ref := range all {
		target := string(ref.Target)
		if ref.Unborn() {
			target = "(unborn)"
		}
		fmt.Fprintf(w, "%s %s\n", target, ref.Name)
	}
}

func printStats(w io.Writer, st graph.Stats) {
	fmt.Fprintf(w, "objects:  %d (%d bytes)\n", st.TotalObjects, st.TotalSize)
	fmt.Fprintf(w, "blobs:    %d\n", st.BlobCount)
	fmt.Fprintf(w, "trees:    %d\n", st.TreeCount)
	fmt.Fprintf(w, "commits:  %d\n", st.CommitCount)
	fmt.Fprintf(w, "dangling: %d\n", st.DanglingObjects)
}
