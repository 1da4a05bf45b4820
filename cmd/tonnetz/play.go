package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/aretw0/tonnetz"
	"github.com/aretw0/tonnetz/pkg/adapters/midiout"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/spf13/cobra"

	// Registers the rtmidi driver used by midiout.Open.
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const playSession = "cli"

var playCmd = &cobra.Command{
	Use:   "play [row,column ...]",
	Short: "Play the notes of lattice nodes on a MIDI output",
	Long: `Selects each node in turn and plays its note on the MIDI output named by the
midi.port setting or --port. With --file the note-on events of a MIDI file are
played at their own times, each selecting the first node that carries the note.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list"); list {
			for i, name := range midiout.Ports() {
				fmt.Fprintf(out, "%d\t%s\n", i, name)
			}
			return nil
		}

		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.MIDI.Port, _ = cmd.Flags().GetString("port")
		}
		file, _ := cmd.Flags().GetString("file")
		if len(args) == 0 && file == "" {
			return fmt.Errorf("nothing to play: give row,column arguments or --file")
		}

		player, err := midiout.Open(cfg.MIDI.Port, midiout.WithLogger(logger))
		if err != nil {
			return err
		}
		engine, cleanup, err := newEngine(cfg, logger, tonnetz.WithPlayer(player))
		if err != nil {
			player.Close()
			return err
		}
		defer cleanup()
		defer engine.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if file != "" {
			bpm, _ := cmd.Flags().GetFloat64("bpm")
			return playFile(ctx, engine, file, bpm, out)
		}

		for _, raw := range args {
			c, err := parseCoord(raw)
			if err != nil {
				return err
			}
			if err := playNode(ctx, engine, c, out); err != nil {
				return err
			}
			if err := wait(ctx, cfg.MIDI.NoteLength); err != nil {
				return nil
			}
		}
		return nil
	},
}

func playNode(ctx context.Context, engine *tonnetz.Engine, c domain.Coord, out io.Writer) error {
	h, err := engine.Select(ctx, playSession, c)
	if err != nil {
		return err
	}
	status := "played"
	if !h.Played {
		status = "not played"
	}
	fmt.Fprintf(out, "%s\t%s\t%s\n", c, h.Node.Note, status)
	return nil
}

func playFile(ctx context.Context, engine *tonnetz.Engine, path string, bpm float64, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	score, err := engine.ImportMIDI(f)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	matches := engine.MatchEvents(score.Events)
	// Tracks are decoded one after another; play them merged.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Event.Tick < matches[j].Event.Tick
	})

	start := time.Now()
	for _, m := range matches {
		if len(m.Nodes) == 0 {
			continue
		}
		at := score.TickDuration(m.Event.Tick, bpm)
		if err := wait(ctx, time.Until(start.Add(at))); err != nil {
			return nil
		}
		if err := playNode(ctx, engine, m.Nodes[0], out); err != nil {
			return err
		}
	}
	return nil
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
	addLayoutFlags(playCmd)
	playCmd.Flags().String("port", "", "MIDI output port, by index or name fragment (default from config)")
	playCmd.Flags().Bool("list", false, "List the available MIDI output ports")
	playCmd.Flags().String("file", "", "Play the notes of a Standard MIDI File")
	playCmd.Flags().Float64("bpm", 120, "Tempo used to time --file events")
}
