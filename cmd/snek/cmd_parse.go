package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/snek/format"
	"github.com/dhamidi/snek/resolve"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var strict bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a document with its imports and dump the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder, err := format.New(outputFormat, os.Stdout)
			if err != nil {
				return err
			}

			var opts []resolve.Option
			if strict {
				opts = append(opts, resolve.WithStrict())
			}
			doc, err := resolve.Resolve(args[0], opts...)
			if doc == nil {
				return err
			}
			if err != nil {
				log.Warningf("%s", err)
			}

			if err := encoder.Encode(doc); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format ("+strings.Join(format.Names, ", ")+")")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first syntax error")

	return cmd
}
