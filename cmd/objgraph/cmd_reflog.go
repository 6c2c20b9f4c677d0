package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReflogCmd(opts *globalOptions) *cobra.Command {
	var limit int
	var ref string

	cmd := &cobra.Command{
		Use:   "reflog <dir>...",
		Short: "Commit each directory in turn and show ref update history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, opts)
			if err != nil {
				return err
			}
			if _, err := commitDirs(r, args, ""); err != nil {
				return err
			}

			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				sha := e.New.Short()
				if e.New.IsZero() {
					sha = "(deleted)"
				}
				ts := e.Timestamp.UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%d %s %s %s %s\n", e.Seq, sha, ts, e.Ref, e.Operation)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	cmd.Flags().StringVar(&ref, "ref", "", "only show this ref (HEAD, branch, tag or full name)")
	return cmd
}
