package main

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/dhamidi/snek/markup/parser"
	"github.com/dhamidi/snek/resolve"
)

func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:           "check <file>...",
		Short:         "Report syntax problems and broken imports",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []resolve.Option
			if strict {
				opts = append(opts, resolve.WithStrict())
			}

			problems := 0
			for _, path := range args {
				problems += check(path, opts)
			}
			if problems > 0 {
				return fmt.Errorf("%d problems", problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat skipped syntax as an error")

	return cmd
}

func check(path string, opts []resolve.Option) int {
	r := resolve.New(opts...)
	_, err := r.Resolve(path)

	problems := 0
	for _, d := range r.Diagnostics() {
		fmt.Println(d)
		if d.Severity == parser.SeverityError {
			problems++
		}
	}
	if err != nil {
		printErrors(err)
		problems += len(unjoin(err))
	}
	return problems
}

// unjoin lists the errors of a joined error, or of an error list such as
// the one returned by the EBNF verifier.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		out := make([]error, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if e, ok := v.Index(i).Interface().(error); ok {
				out = append(out, e)
			}
		}
		return out
	}
	return []error{err}
}

func printErrors(err error) {
	for _, e := range unjoin(err) {
		fmt.Println(e)
	}
}
