package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errFsckFailed = errors.New("fsck: integrity check failed")

func newFsckCmd(opts *globalOptions) *cobra.Command {
	var gc bool

	cmd := &cobra.Command{
		Use:   "fsck <dir>...",
		Short: "Snapshot directories and check object graph integrity",
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
			if gc {
				summary := r.GC()
				fmt.Fprintf(out, "gc: removed %d of %d object(s)\n", len(summary.Removed), summary.Examined)
			}

			report := r.Verify()
			for _, h := range report.Invalid {
				fmt.Fprintf(out, "invalid %s\n", h)
			}
			for _, h := range report.Missing {
				fmt.Fprintf(out, "missing %s\n", h)
			}
			for _, h := range report.Dangling {
				objType, _ := r.Store.Type(h)
				fmt.Fprintf(out, "dangling %s %s\n", objType, h)
			}
			for _, name := range report.BrokenRefs {
				fmt.Fprintf(out, "broken ref %s\n", name)
			}
			printStats(out, report.Stats)

			if !report.OK() {
				return errFsckFailed
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&gc, "gc", false, "remove objects no ref reaches before checking")
	return cmd
}
