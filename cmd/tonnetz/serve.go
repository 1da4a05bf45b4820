package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/tonnetz"
	httpAdapter "github.com/aretw0/tonnetz/pkg/adapters/http"
	"github.com/aretw0/tonnetz/pkg/adapters/midiout"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the Tonnetz engine as an HTTP server exposing the lattice, node selection
sessions, palettes, MIDI import and Prometheus metrics as a JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		var extra []tonnetz.Option
		if play, _ := cmd.Flags().GetBool("play"); play {
			player, err := midiout.Open(cfg.MIDI.Port, midiout.WithLogger(logger))
			if err != nil {
				return err
			}
			extra = append(extra, tonnetz.WithPlayer(player))
		}

		engine, cleanup, err := newEngine(cfg, logger, extra...)
		if err != nil {
			return err
		}
		defer cleanup()
		defer engine.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           httpAdapter.NewHandler(engine),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting tonnetz server", "addr", srv.Addr,
				"rows", cfg.Lattice.Rows, "columns", cfg.Lattice.Columns)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("tonnetz server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addLayoutFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from config)")
	serveCmd.Flags().Bool("play", false, "Play selected notes on the configured MIDI output")
}
