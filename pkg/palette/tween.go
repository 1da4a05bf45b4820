package palette

import (
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Animation durations.
const (
	ActivationDuration = 250 * time.Millisecond
	TransitionDuration = 500 * time.Millisecond
)

// Node scale while active.
const (
	IdleScale   = 1.0
	ActiveScale = 1.5
)

// ColorTween linearly blends From into To over Duration.
type ColorTween struct {
	From     colorful.Color
	To       colorful.Color
	Duration time.Duration
}

// At returns the colour after elapsed time. Values outside [0, Duration] are clamped.
func (t ColorTween) At(elapsed time.Duration) colorful.Color {
	return t.From.BlendRgb(t.To, progress(elapsed, t.Duration)).Clamped()
}

// Frames samples the tween at n evenly spaced instants, including both ends.
func (t ColorTween) Frames(n int) []colorful.Color {
	if n < 2 {
		return []colorful.Color{t.To}
	}
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = t.At(t.Duration * time.Duration(i) / time.Duration(n-1))
	}
	return out
}

// ScaleTween linearly interpolates a uniform scale factor.
type ScaleTween struct {
	From     float64
	To       float64
	Duration time.Duration
}

// At returns the scale after elapsed time, clamped to the tween range.
func (t ScaleTween) At(elapsed time.Duration) float64 {
	return t.From + (t.To-t.From)*progress(elapsed, t.Duration)
}

func progress(elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed >= total {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(total)
}

// Animation describes how a node changes when it is activated or released.
type Animation struct {
	Color ColorTween
	Scale ScaleTween
}

// Activation returns the node animation towards the active (or idle) style,
// starting from the current colour and scale.
func Activation(active bool, fromColor colorful.Color, fromScale float64) Animation {
	toColor, toScale := IdleNode, IdleScale
	if active {
		toColor, toScale = ActiveNode, ActiveScale
	}
	return Animation{
		Color: ColorTween{From: fromColor, To: toColor, Duration: ActivationDuration},
		Scale: ScaleTween{From: fromScale, To: toScale, Duration: ActivationDuration},
	}
}

// Transition is the set of tweens that moves the whole view from one palette to another.
type Transition struct {
	From       string
	To         string
	Background ColorTween
	Node       ColorTween
	Line       ColorTween
}

// NewTransition builds the palette change tweens.
func NewTransition(from, to Palette) Transition {
	return Transition{
		From:       from.Name,
		To:         to.Name,
		Background: ColorTween{From: from.Background, To: to.Background, Duration: TransitionDuration},
		Node:       ColorTween{From: from.Node, To: to.Node, Duration: TransitionDuration},
		Line:       ColorTween{From: from.Line, To: to.Line, Duration: TransitionDuration},
	}
}

// Frame is one sampled step of a Transition.
type Frame struct {
	OffsetMS   int64  `json:"offset_ms"`
	Background string `json:"background"`
	Node       string `json:"node"`
	Line       string `json:"line"`
}

// Frames samples the transition at n evenly spaced instants.
func (t Transition) Frames(n int) []Frame {
	if n < 2 {
		n = 2
	}
	out := make([]Frame, n)
	for i := range out {
		at := TransitionDuration * time.Duration(i) / time.Duration(n-1)
		out[i] = Frame{
			OffsetMS:   at.Milliseconds(),
			Background: t.Background.At(at).Hex(),
			Node:       t.Node.At(at).Hex(),
			Line:       t.Line.At(at).Hex(),
		}
	}
	return out
}
