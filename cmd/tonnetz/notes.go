package main

import (
	"fmt"
	"strconv"

	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/notes"
	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes [count]",
	Short: "Print the note assigned to each node index",
	Long: `Assigns notes from the configured palette to count nodes, cycling through the
palette. Without count the size of the configured lattice is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		count := cfg.Lattice.Rows * cfg.Lattice.Columns
		if len(args) == 1 {
			if count, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
		}

		assigned, err := lattice.AssignNotes(count, cfg.Notes)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, name := range assigned {
			key, err := notes.Parse(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d\t%s\t%d\n", i, name, key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	addLayoutFlags(notesCmd)
}
