package main

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"pattern-atlas-service/pkg/content"
)

func newShowCommand(opts *options) *cobra.Command {
	var raw bool

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := opts.loadRegistry(cmd)
			if err != nil {
				return err
			}
			record, err := lookup(patterns, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				_, err := pretty.Fprintf(out, "%# v\n", record)
				return err
			}

			fmt.Fprintf(out, "%s (%s, %s)\n\n", record.Name, record.Category, record.Difficulty)
			fmt.Fprintln(out, content.NewRenderer().Summary(record.Description))

			printList(cmd, "When to use", record.WhenToUse)
			printList(cmd, "When not to use", record.WhenNotToUse)

			related, _ := patterns.ResolveRelated(record.ID)
			if len(related) > 0 {
				names := make([]string, 0, len(related))
				for _, meta := range related {
					names = append(names, meta.ID)
				}
				fmt.Fprintf(out, "\nRelated: %s\n", strings.Join(names, ", "))
			}

			fmt.Fprintf(out, "\nDiagram: %d nodes, %d edges\n", len(record.Diagram.Nodes), len(record.Diagram.Edges))
			return nil
		},
	}

	showCmd.Flags().BoolVar(&raw, "raw", false, "dump the full record")
	return showCmd
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
