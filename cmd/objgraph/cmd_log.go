package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLogCmd(opts *globalOptions) *cobra.Command {
	var limit int
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log <dir>...",
		Short: "Commit each directory in turn and show the first-parent history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, opts)
			if err != nil {
				return err
			}
			commits, err := commitDirs(r, args, "")
			if err != nil {
				return err
			}

			tip := commits[len(commits)-1]
			log, err := r.Log(tip, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			h := tip
			for i, c := range log {
				firstLine, _, _ := strings.Cut(c.Message, "\n")
				if oneline {
					fmt.Fprintf(out, "%s %s\n", h.Short(), firstLine)
				} else {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "commit %s\n", h)
					fmt.Fprintf(out, "Author: %s\n", c.Author)
					fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339))
					fmt.Fprintf(out, "\n    %s\n", firstLine)
				}
				if len(c.Parents) > 0 {
					h = c.Parents[0]
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum commits to show")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "one line per commit")
	return cmd
}
