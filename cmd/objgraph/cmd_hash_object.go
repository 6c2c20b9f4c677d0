package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd(opts *globalOptions) *cobra.Command {
	var objType string
	var algo string

	cmd := &cobra.Command{
		Use:   "hash-object [-t type] <file>",
		Short: "Compute the object digest of a file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := object.ObjectType(objType)
			if !t.Valid() {
				return fmt.Errorf("hash-object: unknown object type %q", objType)
			}

			name := algo
			if name == "" {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				name = string(cfg.HashAlgorithm())
			}
			alg, err := object.ParseHashAlgorithm(name)
			if err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			if _, err := object.ObjectOf(t, data); err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), alg.SumObject(t, data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&objType, "type", "t", string(object.TypeBlob), "object type (blob, tree, commit)")
	cmd.Flags().StringVar(&algo, "algo", "", "hash algorithm (sha1, blake2b); defaults to config object.hash")
	return cmd
}
