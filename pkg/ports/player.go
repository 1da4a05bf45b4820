package ports

import (
	"context"
	"time"

	"github.com/aretw0/tonnetz/pkg/domain"
)

// Player triggers notes on an output device.
type Player interface {
	// Trigger starts note now and releases it after d. It must not block for d.
	Trigger(ctx context.Context, note domain.NoteName, d time.Duration) error
}
