package main

import (
	"fmt"

	"github.com/aretw0/tonnetz/internal/presentation/graph"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the lattice as a Mermaid diagram",
	Long:  `Prints the lattice as a Mermaid graph. Nodes given with --active are styled as active.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		l, err := lattice.Build(cfg.Lattice.Rows, cfg.Lattice.Columns, cfg.Lattice.Spacing)
		if err != nil {
			return err
		}
		if l, err = l.WithNotes(cfg.Notes); err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		active, _ := cmd.Flags().GetStringArray("active")
		if len(active) > 0 {
			overlay = &graph.GraphOverlay{}
			for _, raw := range active {
				c, err := parseCoord(raw)
				if err != nil {
					return err
				}
				if !l.Contains(c) {
					return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, c)
				}
				overlay.Active = append(overlay.Active, c)
			}
			last := overlay.Active[len(overlay.Active)-1]
			overlay.Selected = &last
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(l, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addLayoutFlags(graphCmd)
	graphCmd.Flags().StringArray("active", nil, "Active node as row,column (repeatable); the last one is selected")
}
