// Package config loads the tonnetz configuration file.
//
// The file may be YAML or JSON. Keys that are absent keep their defaults, so an
// empty file is a valid configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/tonnetz/internal/logging"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/notes"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Lattice LatticeConfig     `json:"lattice" yaml:"lattice" mapstructure:"lattice"`
	Notes   []domain.NoteName `json:"notes" yaml:"notes" mapstructure:"notes"`
	Palette string            `json:"palette" yaml:"palette" mapstructure:"palette"`
	Server  ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Redis   RedisConfig       `json:"redis" yaml:"redis" mapstructure:"redis"`
	Log     LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
	MIDI    MIDIConfig        `json:"midi" yaml:"midi" mapstructure:"midi"`
}

type LatticeConfig struct {
	Rows    int     `json:"rows" yaml:"rows" mapstructure:"rows"`
	Columns int     `json:"columns" yaml:"columns" mapstructure:"columns"`
	Spacing float64 `json:"spacing" yaml:"spacing" mapstructure:"spacing"`
}

type ServerConfig struct {
	Port int `json:"port" yaml:"port" mapstructure:"port"`
}

// RedisConfig selects the redis session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string        `json:"password" yaml:"password" mapstructure:"password"`
	DB       int           `json:"db" yaml:"db" mapstructure:"db"`
	TTL      time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// MIDIConfig selects the output port used by the player.
// Port is a port name fragment or a numeric index; empty means the first port.
type MIDIConfig struct {
	Port       string        `json:"port" yaml:"port" mapstructure:"port"`
	NoteLength time.Duration `json:"note_length" yaml:"note_length" mapstructure:"note_length"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Lattice: LatticeConfig{Rows: 5, Columns: 7, Spacing: 2},
		Notes:   append([]domain.NoteName(nil), lattice.DefaultNotes...),
		Palette: palette.Default,
		Server:  ServerConfig{Port: 8080},
		Redis:   RedisConfig{DB: 0, TTL: 24 * time.Hour},
		Log:     LogConfig{Level: "info"},
		MIDI:    MIDIConfig{NoteLength: 250 * time.Millisecond},
	}
}

// Load reads path and merges it over Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := make(map[string]interface{})
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode merges raw over cfg. Durations may be written as strings ("250ms").
// A notes list replaces the default one instead of being merged element-wise.
func Decode(raw map[string]interface{}, cfg *Config) error {
	if _, ok := raw["notes"]; ok {
		cfg.Notes = nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise only fail deep inside a command.
func (c Config) Validate() error {
	var errs []error
	if c.Lattice.Rows < 1 || c.Lattice.Columns < 1 {
		errs = append(errs, fmt.Errorf("%w: lattice %dx%d", domain.ErrInvalidDimensions, c.Lattice.Rows, c.Lattice.Columns))
	}
	if !(c.Lattice.Spacing > 0) {
		errs = append(errs, fmt.Errorf("%w: %v", domain.ErrInvalidSpacing, c.Lattice.Spacing))
	}
	if len(c.Notes) == 0 {
		errs = append(errs, domain.ErrEmptyPalette)
	}
	for _, n := range c.Notes {
		if _, err := notes.Parse(n); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := palette.Lookup(c.Palette); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.MIDI.NoteLength <= 0 {
		errs = append(errs, fmt.Errorf("invalid midi note length %s", c.MIDI.NoteLength))
	}
	return errors.Join(errs...)
}
