package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/tonnetz"
	"github.com/aretw0/tonnetz/internal/config"
	"github.com/aretw0/tonnetz/internal/logging"
	"github.com/aretw0/tonnetz/pkg/adapters/redis"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/metrics"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tonnetz",
	Short: "Tonnetz builds and serves hexagonal note lattices",
	Long: `Tonnetz lays notes out on an offset hexagonal lattice where every node links to
up to six neighbours. It can print the lattice, serve it over HTTP or MCP, import
MIDI files and play the notes of selected nodes on a MIDI output.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides the config file)")
}

// setup loads the configuration and the logger shared by every command.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Lookup("rows") != nil {
		if err := applyLayoutFlags(cmd, &cfg); err != nil {
			return cfg, nil, err
		}
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// addLayoutFlags registers the lattice overrides of commands that build one.
func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().Int("rows", 0, "Number of lattice rows (default from config)")
	cmd.Flags().Int("columns", 0, "Number of lattice columns (default from config)")
	cmd.Flags().Float64("spacing", 0, "Distance between adjacent nodes (default from config)")
	cmd.Flags().String("notes", "", "Comma separated note palette, e.g. C4,E4,G4 (default from config)")
}

func applyLayoutFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("rows") {
		cfg.Lattice.Rows, _ = cmd.Flags().GetInt("rows")
	}
	if cmd.Flags().Changed("columns") {
		cfg.Lattice.Columns, _ = cmd.Flags().GetInt("columns")
	}
	if cmd.Flags().Changed("spacing") {
		cfg.Lattice.Spacing, _ = cmd.Flags().GetFloat64("spacing")
	}
	if cmd.Flags().Changed("notes") {
		raw, _ := cmd.Flags().GetString("notes")
		cfg.Notes = splitNotes(raw)
	}
	return cfg.Validate()
}

func splitNotes(raw string) []domain.NoteName {
	var out []domain.NoteName
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, domain.NoteName(n))
		}
	}
	return out
}

// newEngine builds the engine described by cfg. The returned cleanup closes
// the redis connection when one was opened.
func newEngine(cfg config.Config, logger *slog.Logger, extra ...tonnetz.Option) (*tonnetz.Engine, func(), error) {
	opts := []tonnetz.Option{
		tonnetz.WithLayout(cfg.Lattice.Rows, cfg.Lattice.Columns, cfg.Lattice.Spacing),
		tonnetz.WithNotes(cfg.Notes),
		tonnetz.WithPalette(cfg.Palette),
		tonnetz.WithNoteLength(cfg.MIDI.NoteLength),
		tonnetz.WithLogger(logger),
		tonnetz.WithMetrics(metrics.New()),
	}

	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.Redis.TTL))
		locker := redis.NewLocker(store.Client(), "tonnetz:")
		opts = append(opts, tonnetz.WithStore(store), tonnetz.WithLocker(locker))
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
		logger.Info("using redis session store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	}

	opts = append(opts, extra...)
	eng, err := tonnetz.New(opts...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error initializing tonnetz: %w", err)
	}
	return eng, cleanup, nil
}

// parseCoord reads "row,column".
func parseCoord(s string) (domain.Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Coord{}, fmt.Errorf("invalid coordinate %q: expected row,column", s)
	}
	row, errRow := strconv.Atoi(strings.TrimSpace(parts[0]))
	col, errCol := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errRow != nil || errCol != nil {
		return domain.Coord{}, fmt.Errorf("invalid coordinate %q: expected row,column", s)
	}
	return domain.Coord{Row: row, Column: col}, nil
}
