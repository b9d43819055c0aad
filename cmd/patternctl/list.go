package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/search"
	"pattern-atlas-service/pkg/validation"
)

func newListCommand(opts *options) *cobra.Command {
	var category, query string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patterns in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := validation.ParseCategory(category)
			if err != nil {
				return err
			}

			patterns, err := opts.loadRegistry(cmd)
			if err != nil {
				return err
			}

			var metas []models.PatternMeta
			for _, result := range search.Search(patterns.GetMetas(), search.Query{Text: query, Category: filter}) {
				metas = append(metas, result.PatternMeta)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDIFFICULTY")
			for _, meta := range metas {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", meta.ID, meta.Name, meta.Category, meta.Difficulty)
			}
			return w.Flush()
		},
	}

	listCmd.Flags().StringVar(&category, "category", "", "only list one category (creational, structural, behavioral)")
	listCmd.Flags().StringVarP(&query, "search", "s", "", "rank patterns by a search query")
	return listCmd
}
