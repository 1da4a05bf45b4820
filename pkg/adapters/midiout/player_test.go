package midiout_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tonnetz/pkg/adapters/midiout"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
)

var _ ports.Player = (*midiout.Player)(nil)

type recorder struct {
	mu   sync.Mutex
	msgs []midi.Message
	err  error
}

func (r *recorder) send(msg midi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) messages() []midi.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]midi.Message(nil), r.msgs...)
}

func TestPlayer_Trigger(t *testing.T) {
	rec := &recorder{}
	p := midiout.New(rec.send, midiout.WithChannel(2), midiout.WithVelocity(90))

	start := time.Now()
	require.NoError(t, p.Trigger(context.Background(), "C4", 20*time.Millisecond))
	assert.Less(t, time.Since(start), 20*time.Millisecond, "Trigger must not wait for the note-off")
	assert.Equal(t, []midi.Message{midi.NoteOn(2, 60, 90)}, rec.messages())

	assert.Eventually(t, func() bool { return len(rec.messages()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, midi.NoteOff(2, 60), rec.messages()[1])
	assert.Equal(t, 0, p.Pending())
}

func TestPlayer_CloseFlushesPendingNotes(t *testing.T) {
	rec := &recorder{}
	p := midiout.New(rec.send)

	require.NoError(t, p.Trigger(context.Background(), "A4", time.Hour))
	require.NoError(t, p.Trigger(context.Background(), "Ds4", time.Hour))
	assert.Equal(t, 2, p.Pending())

	require.NoError(t, p.Close())
	msgs := rec.messages()
	require.Len(t, msgs, 5)
	assert.ElementsMatch(t, []midi.Message{midi.NoteOff(0, 69), midi.NoteOff(0, 63)}, msgs[2:4])
	assert.Equal(t, midi.ControlChange(0, midi.AllNotesOff, midi.Off), msgs[4])
	assert.Equal(t, 0, p.Pending())

	assert.ErrorIs(t, p.Trigger(context.Background(), "C4", time.Millisecond), midiout.ErrClosed)
	assert.NoError(t, p.Close(), "Close is idempotent")
}

func TestPlayer_Errors(t *testing.T) {
	rec := &recorder{}
	p := midiout.New(rec.send)

	err := p.Trigger(context.Background(), "X4", time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrInvalidNote)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Trigger(ctx, "C4", time.Millisecond), context.Canceled)
	assert.Empty(t, rec.messages())

	rec.err = errors.New("port gone")
	err = p.Trigger(context.Background(), "C4", time.Millisecond)
	assert.ErrorContains(t, err, "port gone")
	assert.Equal(t, 0, p.Pending(), "a failed note-on schedules nothing")
}

func TestPlayer_SendsAreSerialized(t *testing.T) {
	var inFlight, overlaps, afterClose atomic.Int32
	var closed atomic.Bool
	send := func(msg midi.Message) error {
		if closed.Load() {
			afterClose.Add(1)
		}
		if inFlight.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(100 * time.Microsecond)
		inFlight.Add(-1)
		return nil
	}
	p := midiout.New(send)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = p.Trigger(context.Background(), "C4", time.Duration(i%4)*time.Millisecond)
		}(i)
	}
	wg.Wait()

	require.NoError(t, p.Close())
	closed.Store(true)
	time.Sleep(20 * time.Millisecond)

	assert.Zero(t, overlaps.Load(), "the driver must never see concurrent sends")
	assert.Zero(t, afterClose.Load(), "no note-off may follow Close")
	assert.Equal(t, 0, p.Pending())
}
