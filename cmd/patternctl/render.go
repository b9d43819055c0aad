package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pattern-atlas-service/pkg/render"
)

func newRenderCommand(opts *options) *cobra.Command {
	var output, selected, hovered, format, neutralFill string

	renderCmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a pattern diagram as SVG or scene JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "svg" && format != "json" {
				return fmt.Errorf("unknown format %q: use svg or json", format)
			}

			patterns, err := opts.loadRegistry(cmd)
			if err != nil {
				return err
			}
			record, err := lookup(patterns, args[0])
			if err != nil {
				return err
			}

			scene := render.Layout(record.Diagram, render.Interaction{
				SelectedNodeID: selected,
				HoveredNodeID:  hovered,
			}, render.WithTitle(record.Name), render.WithNeutralFill(neutralFill))

			for _, id := range scene.SkippedEdges {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped edge %s: endpoint is not a node\n", id)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(scene)
			}
			return render.WriteSVG(w, scene)
		},
	}

	renderCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	renderCmd.Flags().StringVar(&selected, "selected", "", "id of the selected node")
	renderCmd.Flags().StringVar(&hovered, "hovered", "", "id of the hovered node")
	renderCmd.Flags().StringVar(&format, "format", "svg", "output format: svg or json")
	renderCmd.Flags().StringVar(&neutralFill, "neutral-fill", render.DefaultNeutralFill, "body fill of unselected nodes")
	return renderCmd
}
