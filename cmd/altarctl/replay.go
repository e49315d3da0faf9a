package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/exilekit/altar-agent/altar"
	"github.com/exilekit/altar-agent/config"
	"github.com/exilekit/altar-agent/cycle"
)

var replayInterval time.Duration

var replayCmd = &cobra.Command{
	Use:   "replay <scan.json>",
	Short: "Replay scans through the concurrent scan/consume cycle",
	Long: `Replay feeds one recorded scan per tick into the registry while a second
loop evaluates whatever is active, the way the agent runs in game.

Examples:
  altarctl replay scans.json
  altarctl replay scans.json --interval 10ms --no-lock`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSetup()
		if err != nil {
			return err
		}
		scans, err := readScans(args[0])
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		cfg := replayCycle(s.cfg, replayInterval, cmd.Flags().Changed("interval"))
		return replay(ctx, s.engine(), scans, cfg, cmd.OutOrStdout())
	},
}

func init() {
	replayCmd.Flags().DurationVar(&replayInterval, "interval", 0, "Tick of both loops (default: [scan] intervals of the config)")
}

// replayCycle ticks at the configured scan intervals unless --interval was
// given.
func replayCycle(c *config.Config, interval time.Duration, overridden bool) cycle.Config {
	if overridden {
		return cycle.Config{ScanInterval: interval, ConsumeInterval: interval}
	}
	return cycle.Config{ScanInterval: c.ScanInterval(), ConsumeInterval: c.ConsumeInterval()}
}

// replay ends once every scan was fed and every registered encounter was
// evaluated.
func replay(ctx context.Context, e *altar.Engine, scans []altar.RawEncounter, cfg cycle.Config, w io.Writer) error {
	w = &lockedWriter{w: w}
	var (
		next    int
		fed     atomic.Bool
		decided = make(map[string]bool)
	)

	scan := func(context.Context) error {
		if next >= len(scans) {
			fed.Store(true)
			return nil
		}
		if !e.TryAddEncounter(scans[next]) {
			fmt.Fprintf(w, "scan %d: duplicate\n", next)
		}
		next++
		return nil
	}

	consume := func(context.Context) error {
		done := fed.Load()
		for _, enc := range e.GetActiveEncounters() {
			if decided[enc.ID] {
				continue
			}
			decided[enc.ID] = true
			d, r, err := e.Evaluate(enc)
			if err != nil {
				fmt.Fprintf(w, "%s: %v\n", enc.ID, err)
				continue
			}
			msg := fmt.Sprintf("%s %s: top %.2f bottom %.2f -> %s", enc.ID, enc.Type, r.TopWeight, r.BottomWeight, d.Outcome)
			if d.Reason != altar.ReasonNone {
				msg += fmt.Sprintf(" (%s)", d.Reason)
			}
			fmt.Fprintln(w, msg)
		}
		if done {
			return cycle.ErrStop
		}
		return nil
	}

	return cycle.Run(ctx, cfg, scan, consume)
}

// lockedWriter serializes output of the two loops.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
