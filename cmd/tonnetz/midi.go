package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/tonnetz"
	"github.com/aretw0/tonnetz/internal/presentation/tui"
	"github.com/aretw0/tonnetz/pkg/midifile"
	"github.com/spf13/cobra"
)

var midiCmd = &cobra.Command{
	Use:   "midi <file>",
	Short: "Import a Standard MIDI File",
	Long: `Decodes a format 0 or 1 Standard MIDI File into note events and lists them
together with the lattice nodes that carry each note.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		engine, cleanup, err := newEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		score, err := engine.ImportMIDI(f)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*midifile.Score
				Matches []tonnetz.Match `json:"matches"`
			}{score, engine.MatchEvents(score.Events)})
		}

		limit, _ := cmd.Flags().GetInt("limit")
		rendered, err := tui.NewRenderer()(tui.ScoreSummary(score, engine.Lattice(), limit))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(midiCmd)
	addLayoutFlags(midiCmd)
	midiCmd.Flags().Bool("json", false, "Print the score and node matches as JSON")
	midiCmd.Flags().Int("limit", 32, "Maximum number of notes listed in the summary")
}
