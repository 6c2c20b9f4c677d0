package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "objgraph",
		Short:         "Content-addressed object store and ref graph inspector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to an objgraph TOML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newHashObjectCmd(opts))
	root.AddCommand(newCheckRefFormatCmd())
	root.AddCommand(newSnapshotCmd(opts))
	root.AddCommand(newLogCmd(opts))
	root.AddCommand(newFsckCmd(opts))
	root.AddCommand(newGraphCmd(opts))
	root.AddCommand(newReflogCmd(opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "objgraph %s\n", version)
		},
	}
}
