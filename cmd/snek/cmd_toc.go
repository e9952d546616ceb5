package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/snek/markup"
	"github.com/dhamidi/snek/resolve"
)

func newTOCCmd() *cobra.Command {
	var ordered bool

	cmd := &cobra.Command{
		Use:   "toc <file>",
		Short: "Print the table of contents of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := resolve.Resolve(args[0])
			if doc == nil {
				return err
			}
			if err != nil {
				log.Warningf("%s", err)
			}

			if !cmd.Flags().Changed("ordered") && doc.Config != nil {
				ordered = doc.Config.TOC.Ordered
			}
			if doc.Config != nil && doc.Config.TOC.Title != "" {
				fmt.Println(doc.Config.TOC.Title)
			}
			printTOC(os.Stdout, doc.TOC(ordered).Items, 0)
			return nil
		},
	}

	cmd.Flags().BoolVar(&ordered, "ordered", false, "number the entries")

	return cmd
}

func printTOC(w io.Writer, items []*markup.ListItem, depth int) {
	for i, item := range items {
		marker := "-"
		if item.Ordered {
			marker = fmt.Sprintf("%d.", i+1)
		}
		text := item.Text.PlainText()
		target := ""
		if len(item.Text.Inlines) == 1 && item.Text.Inlines[0].URL != nil {
			target = item.Text.Inlines[0].URL.Target
		}
		fmt.Fprintf(w, "%s%s %s %s\n", strings.Repeat("  ", depth), marker, text, target)
		printTOC(w, item.Children, depth+1)
	}
}
