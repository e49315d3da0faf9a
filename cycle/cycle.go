// Package cycle runs the scan producer and the consume loop side by side.
package cycle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrStop ends both loops without reporting an error.
var ErrStop = errors.New("cycle stopped")

// Config holds the tick of each loop.
type Config struct {
	ScanInterval    time.Duration
	ConsumeInterval time.Duration
}

// Func is one tick of a loop. Returning ErrStop ends the run cleanly; any
// other error cancels the sibling loop and is returned from Run.
type Func func(ctx context.Context) error

// Run ticks scan and consume on their own goroutines until ctx is done or a
// tick fails. Both ticks run once immediately.
func Run(ctx context.Context, cfg Config, scan, consume Func) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop(gCtx, "scan", cfg.ScanInterval, scan)
	})
	g.Go(func() error {
		return loop(gCtx, "consume", cfg.ConsumeInterval, consume)
	})
	err := g.Wait()
	if errors.Is(err, ErrStop) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loop(ctx context.Context, name string, interval time.Duration, fn Func) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ticks := 0
	for {
		if err := fn(ctx); err != nil {
			log.Debug().Str("loop", name).Int("ticks", ticks).Err(err).Msg("<Cycle> loop ended")
			return err
		}
		ticks++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
