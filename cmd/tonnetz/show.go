package main

import (
	"fmt"
	"os"

	"github.com/aretw0/tonnetz/internal/presentation/tui"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/notes"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Draw the lattice in the terminal",
	Long: `Draws the configured lattice as text followed by a summary table.
Use --select row,column to highlight a node and the edges it connects to.`,
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

		out := cmd.OutOrStdout()
		color := out == os.Stdout && tui.IsTerminal(os.Stdout)
		view := tui.LatticeView{Lattice: l, Color: color}

		var selected *domain.Node
		if raw, _ := cmd.Flags().GetString("select"); raw != "" {
			c, err := parseCoord(raw)
			if err != nil {
				return err
			}
			n, ok := l.Node(c)
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, c)
			}
			view.Selected = &c
			view.Active = []domain.Coord{c}
			selected = &n
		}

		if color {
			tui.PrintBanner(out)
		}
		fmt.Fprintln(out, view.Render())

		if summary, _ := cmd.Flags().GetBool("summary"); !summary {
			return nil
		}
		md := tui.LatticeSummary(l)
		if selected != nil {
			md += fmt.Sprintf("\n## Node %s\n\n- note: %s\n", selected.Coord, selected.Note)
			if key, err := notes.Parse(selected.Note); err == nil {
				md += fmt.Sprintf("- MIDI key: %d\n", key)
			}
			md += fmt.Sprintf("- degree: %d\n", l.Degree(selected.Coord))
			for _, nb := range l.Neighbors(selected.Coord) {
				n, _ := l.Node(nb)
				md += fmt.Sprintf("- neighbour %s: %s\n", nb, n.Note)
			}
		}
		rendered, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	addLayoutFlags(showCmd)
	showCmd.Flags().String("select", "", "Highlight a node, as row,column")
	showCmd.Flags().Bool("summary", true, "Print a summary table after the drawing")
}
