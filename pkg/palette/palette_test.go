package palette_test

import (
	"testing"
	"time"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, err := palette.Lookup("warm")
	require.NoError(t, err)
	assert.Equal(t, palette.Hex{
		Name:       "warm",
		Node:       "#ff5733",
		Line:       "#ffc300",
		Background: "#f2a65a",
	}, p.Hex())

	_, err = palette.Lookup("plaid")
	assert.ErrorIs(t, err, domain.ErrUnknownPalette)

	_, err = palette.Lookup(palette.Default)
	assert.NoError(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"cool", "neutral", "warm"}, palette.Names())
	assert.Len(t, palette.All(), 3)
}

func TestColorTween(t *testing.T) {
	tw := palette.ColorTween{
		From:     palette.IdleEdge,
		To:       palette.HighlightEdge,
		Duration: 100 * time.Millisecond,
	}

	assert.Equal(t, "#ffffff", tw.At(-time.Second).Hex())
	assert.Equal(t, "#ff3366", tw.At(100*time.Millisecond).Hex())
	assert.Equal(t, "#ff3366", tw.At(time.Hour).Hex())

	mid := tw.At(50 * time.Millisecond)
	assert.InDelta(t, 1.0, mid.R, 1e-9)
	assert.InDelta(t, (1+0.2)/2, mid.G, 1e-9)

	frames := tw.Frames(3)
	require.Len(t, frames, 3)
	assert.Equal(t, "#ffffff", frames[0].Hex())
	assert.Equal(t, "#ff3366", frames[2].Hex())

	assert.Len(t, tw.Frames(1), 1)
}

func TestScaleTween(t *testing.T) {
	tw := palette.ScaleTween{From: 1, To: 1.5, Duration: 200 * time.Millisecond}
	assert.Equal(t, 1.0, tw.At(0))
	assert.InDelta(t, 1.25, tw.At(100*time.Millisecond), 1e-9)
	assert.Equal(t, 1.5, tw.At(time.Second))

	instant := palette.ScaleTween{From: 1, To: 2}
	assert.Equal(t, 2.0, instant.At(0))
}

func TestActivation(t *testing.T) {
	on := palette.Activation(true, palette.IdleNode, palette.IdleScale)
	assert.Equal(t, palette.ActivationDuration, on.Color.Duration)
	assert.Equal(t, palette.ActiveNode, on.Color.To)
	assert.Equal(t, palette.ActiveScale, on.Scale.To)

	off := palette.Activation(false, palette.ActiveNode, palette.ActiveScale)
	assert.Equal(t, palette.IdleNode, off.Color.To)
	assert.Equal(t, palette.IdleScale, off.Scale.To)
}

func TestTransitionFrames(t *testing.T) {
	cool, _ := palette.Lookup("cool")
	warm, _ := palette.Lookup("warm")

	tr := palette.NewTransition(cool, warm)
	assert.Equal(t, "cool", tr.From)
	assert.Equal(t, "warm", tr.To)

	frames := tr.Frames(5)
	require.Len(t, frames, 5)
	assert.Equal(t, int64(0), frames[0].OffsetMS)
	assert.Equal(t, int64(500), frames[4].OffsetMS)
	assert.Equal(t, cool.Hex().Node, frames[0].Node)
	assert.Equal(t, warm.Hex().Background, frames[4].Background)
	assert.Equal(t, warm.Hex().Line, frames[4].Line)

	assert.Len(t, tr.Frames(0), 2)
}
