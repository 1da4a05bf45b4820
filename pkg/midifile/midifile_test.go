package midifile_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/midifile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func chunk(tag string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString(tag)
	_ = binary.Write(&b, binary.BigEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

func rawSMF(format uint16, division uint16, tracks ...[]byte) []byte {
	header := make([]byte, 6)
	binary.BigEndian.PutUint16(header[0:], format)
	binary.BigEndian.PutUint16(header[2:], uint16(len(tracks)))
	binary.BigEndian.PutUint16(header[4:], division)

	out := chunk("MThd", header)
	for _, tr := range tracks {
		out = append(out, chunk("MTrk", tr)...)
	}
	return out
}

var endOfTrack = []byte{0x00, 0xFF, 0x2F, 0x00}

func TestImport_FormatOneTwoTracks(t *testing.T) {
	track1 := append([]byte{
		0x00, 0x90, 0x3C, 0x64, // note on C4 vel 100
		0x83, 0x60, 0x80, 0x3C, 0x40, // +480 note off C4
	}, endOfTrack...)
	track2 := append([]byte{
		0x00, 0x91, 0x40, 0x50, // note on E4 ch 1
		0x81, 0x70, 0x91, 0x40, 0x00, // +240 note on vel 0 => off
	}, endOfTrack...)

	score, err := midifile.ImportBytes(rawSMF(1, 480, track1, track2))
	require.NoError(t, err)

	assert.Equal(t, uint16(1), score.Format)
	assert.Equal(t, 2, score.Tracks)
	assert.Equal(t, uint16(480), score.Resolution)
	assert.Equal(t, []domain.NoteEvent{
		{Note: 60, Tick: 0, Kind: domain.EventNoteOn, Channel: 0, Velocity: 100, Track: 0},
		{Note: 60, Tick: 480, Kind: domain.EventNoteOff, Channel: 0, Track: 0},
		{Note: 64, Tick: 0, Kind: domain.EventNoteOn, Channel: 1, Velocity: 80, Track: 1},
		{Note: 64, Tick: 240, Kind: domain.EventNoteOff, Channel: 1, Track: 1},
	}, score.Events)

	assert.Equal(t, 2, score.NoteOns())
	assert.Equal(t, int64(480), score.LastTick())
	assert.Equal(t, 500*time.Millisecond, score.Duration(120))
	assert.Equal(t, time.Duration(0), score.Duration(0))
}

func TestImport_UnsupportedFormat(t *testing.T) {
	track := append([]byte{0x00, 0x90, 0x3C, 0x64}, endOfTrack...)

	_, err := midifile.ImportBytes(rawSMF(2, 96, track))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestImport_Garbage(t *testing.T) {
	_, err := midifile.ImportBytes([]byte("definitely not a midi file"))
	require.Error(t, err)
	assert.ErrorIs(t, err, midifile.ErrDecode)
	assert.NotErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestImport_WrittenBySMF(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var track smf.Track
	track.Add(0, midi.NoteOn(2, 67, 90))
	track.Add(48, midi.NoteOff(2, 67))
	track.Add(0, midi.ControlChange(2, 7, 100))
	track.Close(0)
	require.NoError(t, s.Add(track))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	score, err := midifile.Import(&buf)
	require.NoError(t, err)

	assert.Equal(t, uint16(96), score.Resolution)
	require.Len(t, score.Events, 2, "control changes are not note events")
	assert.Equal(t, domain.EventNoteOn, score.Events[0].Kind)
	assert.Equal(t, uint8(2), score.Events[0].Channel)
	assert.Equal(t, domain.EventNoteOff, score.Events[1].Kind)
	assert.Equal(t, int64(48), score.Events[1].Tick)
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	track := append([]byte{0x00, 0x90, 0x3C, 0x64}, endOfTrack...)
	require.NoError(t, os.WriteFile(path, rawSMF(0, 480, track), 0o644))

	score, err := midifile.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), score.Format)
	assert.Len(t, score.Events, 1)

	_, err = midifile.ImportFile(filepath.Join(t.TempDir(), "missing.mid"))
	assert.Error(t, err)
}
