package tonnetz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/tonnetz/internal/logging"
	"github.com/aretw0/tonnetz/pkg/adapters/memory"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/metrics"
	"github.com/aretw0/tonnetz/pkg/midifile"
	"github.com/aretw0/tonnetz/pkg/notes"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/aretw0/tonnetz/pkg/ports"
	"github.com/aretw0/tonnetz/pkg/session"
)

// Default lattice layout.
const (
	DefaultRows    = 5
	DefaultColumns = 7
	DefaultSpacing = 2.0
)

// DefaultNoteLength is an eighth note at 120 BPM.
const DefaultNoteLength = 250 * time.Millisecond

// Engine is the high-level entry point for the Tonnetz library.
// It owns one labelled lattice and the selections made on it.
type Engine struct {
	lattice  *lattice.Lattice
	sessions *session.Manager
	byKey    map[uint8][]domain.Coord

	rows        int
	columns     int
	spacing     float64
	notes       []domain.NoteName
	palette     string
	noteLength  time.Duration
	store       ports.SelectionStore
	player      ports.Player
	metrics     *metrics.Collector
	logger      *slog.Logger
	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLayout sets the grid size and the distance between neighbouring nodes.
func WithLayout(rows, columns int, spacing float64) Option {
	return func(e *Engine) {
		e.rows = rows
		e.columns = columns
		e.spacing = spacing
	}
}

// WithNotes sets the note palette repeated over the nodes.
func WithNotes(names []domain.NoteName) Option {
	return func(e *Engine) {
		e.notes = names
	}
}

// WithStore injects the selection store (default: in memory).
func WithStore(store ports.SelectionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithLocker(locker))
	}
}

// WithSessionOptions passes options through to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithPalette sets the palette new sessions start with.
func WithPalette(name string) Option {
	return func(e *Engine) {
		e.palette = name
	}
}

// WithPlayer plays the note of every selected node.
func WithPlayer(p ports.Player) Option {
	return func(e *Engine) {
		e.player = p
	}
}

// WithMetrics records engine activity in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithNoteLength sets how long a played note sounds.
func WithNoteLength(d time.Duration) Option {
	return func(e *Engine) {
		e.noteLength = d
	}
}

// New builds the lattice and initializes the Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		rows:       DefaultRows,
		columns:    DefaultColumns,
		spacing:    DefaultSpacing,
		notes:      lattice.DefaultNotes,
		noteLength: DefaultNoteLength,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.noteLength <= 0 {
		return nil, fmt.Errorf("invalid note length %s", eng.noteLength)
	}

	l, err := eng.Build(eng.rows, eng.columns, eng.spacing)
	if err != nil {
		return nil, err
	}
	eng.lattice = l
	eng.byKey = indexByKey(l)

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.palette != "" {
		if _, err := palette.Lookup(eng.palette); err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithDefaultPalette(eng.palette))
	}
	sessionOpts = append(sessionOpts, eng.sessionOpts...)
	eng.sessions = session.NewManager(l, eng.store, sessionOpts...)

	eng.logger.Info("lattice ready",
		"rows", l.Rows(),
		"columns", l.Columns(),
		"nodes", l.Len(),
		"edges", len(l.Edges()),
	)
	return eng, nil
}

// Build creates a labelled lattice with the engine's note palette. It does not
// replace the engine's own lattice.
func (e *Engine) Build(rows, columns int, spacing float64) (*lattice.Lattice, error) {
	start := time.Now()
	l, err := lattice.Build(rows, columns, spacing)
	if err != nil {
		return nil, err
	}
	l, err = l.WithNotes(e.notes)
	if err != nil {
		return nil, err
	}
	e.metrics.LatticeBuilt(time.Since(start))
	return l, nil
}

// Lattice returns the engine's lattice.
func (e *Engine) Lattice() *lattice.Lattice {
	return e.lattice
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Notes returns the note palette.
func (e *Engine) Notes() []domain.NoteName {
	return append([]domain.NoteName(nil), e.notes...)
}

// Metrics returns the collector, which may be nil.
func (e *Engine) Metrics() *metrics.Collector {
	return e.metrics
}

// Select highlights the node at c for the session and plays its note.
// A player failure does not fail the selection: it is logged, counted and
// reported as Highlight.Played == false.
func (e *Engine) Select(ctx context.Context, sessionID string, c domain.Coord) (*session.Highlight, error) {
	h, err := e.sessions.Select(ctx, sessionID, c)
	if err != nil {
		return nil, err
	}
	e.metrics.Selected(h.Activated)

	if e.player != nil && h.Node.Note != "" {
		if err := e.player.Trigger(ctx, h.Node.Note, e.noteLength); err != nil {
			e.metrics.PlayerFailed()
			e.logger.Error("failed to play note",
				"session_id", sessionID,
				"note", h.Node.Note,
				"error", err,
			)
		} else {
			h.Played = true
		}
	}
	return h, nil
}

// Sweep releases nodes whose active period has ended.
func (e *Engine) Sweep(ctx context.Context, sessionID string) (*domain.SelectionDiff, error) {
	return e.sessions.Sweep(ctx, sessionID)
}

// ApplyPalette switches the session's colour palette.
func (e *Engine) ApplyPalette(ctx context.Context, sessionID, name string) (palette.Transition, *domain.SelectionDiff, error) {
	return e.sessions.ApplyPalette(ctx, sessionID, name)
}

// Session returns the stored selection of a session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Selection, error) {
	return e.sessions.Load(ctx, sessionID)
}

// DeleteSession forgets a session.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// ListSessions returns the known session IDs.
func (e *Engine) ListSessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// ImportMIDI decodes a Standard MIDI File.
func (e *Engine) ImportMIDI(r io.Reader) (*midifile.Score, error) {
	score, err := midifile.Import(r)
	switch {
	case err == nil:
		e.metrics.Imported(metrics.ResultOK)
		e.logger.Info("midi imported",
			"format", score.Format,
			"tracks", score.Tracks,
			"events", len(score.Events),
		)
		return score, nil
	case errors.Is(err, domain.ErrUnsupportedFormat):
		e.metrics.Imported(metrics.ResultUnsupported)
	default:
		e.metrics.Imported(metrics.ResultInvalid)
	}
	e.logger.Warn("midi import failed", "error", err)
	return nil, err
}

// Match pairs a note event with the lattice nodes that carry its pitch.
type Match struct {
	Event domain.NoteEvent `json:"event"`
	Nodes []domain.Coord   `json:"nodes"`
}

// MatchEvents maps each note-on event to the nodes labelled with the same MIDI key.
// Enharmonic spellings match (Ds4 and Eb4 are the same key). Events whose key
// appears nowhere on the lattice get an empty node list.
func (e *Engine) MatchEvents(events []domain.NoteEvent) []Match {
	var matches []Match
	for _, ev := range events {
		if ev.Kind != domain.EventNoteOn {
			continue
		}
		matches = append(matches, Match{
			Event: ev,
			Nodes: append([]domain.Coord{}, e.byKey[ev.Note]...),
		})
	}
	return matches
}

// Version returns the module release.
func (e *Engine) Version() string {
	return strings.TrimSpace(Version)
}

// Close releases the player when it holds resources.
func (e *Engine) Close() error {
	if c, ok := e.player.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func indexByKey(l *lattice.Lattice) map[uint8][]domain.Coord {
	idx := make(map[uint8][]domain.Coord)
	for _, n := range l.Nodes() {
		key, err := notes.Parse(n.Note)
		if err != nil {
			continue
		}
		idx[key] = append(idx[key], n.Coord)
	}
	return idx
}
