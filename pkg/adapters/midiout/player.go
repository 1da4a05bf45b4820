// Package midiout plays lattice notes on a MIDI output port.
package midiout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/tonnetz/internal/logging"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/notes"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrClosed is returned by Trigger after Close.
var ErrClosed = errors.New("midi player closed")

// DefaultVelocity is the note-on velocity of triggered notes.
const DefaultVelocity = 100

// Player implements ports.Player. Trigger sends the note-on immediately and
// schedules the matching note-off, so it never blocks for the note length.
type Player struct {
	send     func(midi.Message) error
	port     drivers.Out
	channel  uint8
	velocity uint8
	logger   *slog.Logger

	mu      sync.Mutex
	closed  bool
	nextID  uint64
	pending map[uint64]pendingNote
}

type pendingNote struct {
	key   uint8
	timer *time.Timer
}

// Option configures the Player.
type Option func(*Player)

// WithChannel sets the MIDI channel (0-15).
func WithChannel(ch uint8) Option {
	return func(p *Player) {
		p.channel = ch & 0x0f
	}
}

// WithVelocity sets the note-on velocity.
func WithVelocity(v uint8) Option {
	return func(p *Player) {
		p.velocity = v
	}
}

// WithLogger configures a logger for the Player.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// New creates a Player writing through send.
func New(send func(midi.Message) error, opts ...Option) *Player {
	p := &Player{
		send:     send,
		velocity: DefaultVelocity,
		logger:   logging.NewNop(),
		pending:  make(map[uint64]pendingNote),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open connects to an output port of the registered driver. port is either a
// numeric index or a name fragment; empty selects port 0.
// A driver must be registered by importing it, e.g. gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
func Open(port string, opts ...Option) (*Player, error) {
	out, err := findPort(port)
	if err != nil {
		return nil, err
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("error sending to MIDI port %q: %w", out.String(), err)
	}

	p := New(send, opts...)
	p.port = out
	return p, nil
}

func findPort(port string) (drivers.Out, error) {
	if port == "" {
		port = "0"
	}
	if idx, err := strconv.Atoi(port); err == nil {
		out, err := midi.OutPort(idx)
		if err != nil {
			return nil, fmt.Errorf("error opening MIDI port %d: %w", idx, err)
		}
		return out, nil
	}
	out, err := midi.FindOutPort(port)
	if err != nil {
		return nil, fmt.Errorf("error opening MIDI port %q: %w", port, err)
	}
	return out, nil
}

// Ports lists the output port names of the registered driver.
func Ports() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// Trigger starts note now and stops it after d.
func (p *Player) Trigger(ctx context.Context, note domain.NoteName, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := notes.Parse(note)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if err := p.send(midi.NoteOn(p.channel, key, p.velocity)); err != nil {
		return fmt.Errorf("note on failed for %s: %w", note, err)
	}

	id := p.nextID
	p.nextID++
	p.pending[id] = pendingNote{
		key:   key,
		timer: time.AfterFunc(d, func() { p.release(id) }),
	}
	return nil
}

// release runs on the timer goroutine. It sends under mu so the driver never
// sees concurrent writes, and does nothing once Close has flushed the note.
func (p *Player) release(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.pending[id]
	if !ok {
		return
	}
	delete(p.pending, id)
	if err := p.send(midi.NoteOff(p.channel, n.key)); err != nil {
		p.logger.Error("NoteOff event failed", "key", n.key, "error", err)
	}
}

// Pending returns the number of notes still sounding.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Close stops every sounding note, sends all-notes-off and closes the port.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for id, n := range p.pending {
		n.timer.Stop()
		delete(p.pending, id)
		if err := p.send(midi.NoteOff(p.channel, n.key)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.send(midi.ControlChange(p.channel, midi.AllNotesOff, midi.Off)); err != nil {
		errs = append(errs, err)
	}
	if p.port != nil {
		if err := p.port.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
