// Package lockstep drives the simulation frame by frame. Synced actions are
// queued for a future frame and executed in submission order at the start of
// that frame, so every participant fed the same queue reaches the same state.
package lockstep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/game/sim"
	"github.com/cory-johannsen/rts/internal/game/synced"
	"github.com/cory-johannsen/rts/internal/journal"
)

// ErrReplayDiverged is returned by Replay when a re-executed action's result
// differs from the recorded one.
var ErrReplayDiverged = errors.New("replay diverged from journal")

// Dispatcher executes synced actions. *synced.Instance satisfies it.
type Dispatcher interface {
	Dispatch(a synced.Action) bool
}

// FrameHook receives the per-frame callin. *scripting.Manager satisfies it.
type FrameHook interface {
	GameFrame(frame int)
}

// Config holds the collaborators of a Loop.
type Config struct {
	World    *sim.World
	Commands Dispatcher
	// Lua is optional.
	Lua FrameHook
	// Journal is optional; nil records nothing.
	Journal journal.Store
	MatchID uuid.UUID
	// Interval is the wall-clock duration of one frame in Run.
	Interval time.Duration
	Logger   *zap.Logger
}

// Loop is the frame loop of one match.
//
// Submit is safe for concurrent use; Step, Run, and Replay must be called from
// a single simulation goroutine.
type Loop struct {
	mu      sync.Mutex
	frame   int
	pending map[int][]synced.Action

	world    *sim.World
	commands Dispatcher
	lua      FrameHook
	store    journal.Store
	matchID  uuid.UUID
	seq      int64
	interval time.Duration
	logger   *zap.Logger

	// now stamps journal entries; replaced in tests.
	now func() time.Time
}

// New creates a Loop positioned at the world's current frame.
//
// Precondition: cfg.World, cfg.Commands, and cfg.Logger must be non-nil;
// cfg.Interval must be > 0.
func New(cfg Config) *Loop {
	if cfg.World == nil || cfg.Commands == nil || cfg.Logger == nil {
		panic("lockstep.New: World, Commands, and Logger must not be nil")
	}
	if cfg.Interval <= 0 {
		panic("lockstep.New: interval must be > 0")
	}
	store := cfg.Journal
	if store == nil {
		store = journal.Nop{}
	}
	return &Loop{
		frame:    cfg.World.Global.FrameNum,
		pending:  make(map[int][]synced.Action),
		world:    cfg.World,
		commands: cfg.Commands,
		lua:      cfg.Lua,
		store:    store,
		matchID:  cfg.MatchID,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// MatchID returns the journal ID of the match.
func (l *Loop) MatchID() uuid.UUID {
	return l.matchID
}

// Frame returns the last simulated frame, -1 before the first.
func (l *Loop) Frame() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Submit queues a for the next frame.
//
// Postcondition: Returns the frame a will execute in, or ctx's error.
func (l *Loop) Submit(ctx context.Context, a synced.Action) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	frame := l.frame + 1
	l.pending[frame] = append(l.pending[frame], a)
	return frame, nil
}

// Pending returns the number of queued actions.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, as := range l.pending {
		n += len(as)
	}
	return n
}

func (l *Loop) scheduleAt(frame int, a synced.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if frame <= l.frame {
		return fmt.Errorf("frame %d already simulated (current %d)", frame, l.frame)
	}
	l.pending[frame] = append(l.pending[frame], a)
	return nil
}

// Step simulates one frame: the first frame starts the game, queued actions
// run in submission order and are journaled, then Lua receives GameFrame.
//
// Postcondition: Returns the simulated frame and the results of its actions
// in execution order.
func (l *Loop) Step(ctx context.Context) (int, []bool) {
	l.mu.Lock()
	l.frame++
	frame := l.frame
	actions := l.pending[frame]
	delete(l.pending, frame)
	l.mu.Unlock()

	l.world.Global.FrameNum = frame
	if frame == 0 {
		l.world.Game.SetPlaying(true)
		l.logger.Info("game started")
	}

	results := make([]bool, 0, len(actions))
	for _, a := range actions {
		ok := l.commands.Dispatch(a)
		results = append(results, ok)
		l.seq++
		entry := journal.Entry{
			MatchID:    l.matchID,
			Frame:      frame,
			Seq:        l.seq,
			PlayerID:   a.PlayerID,
			Command:    a.Command,
			Args:       a.Args,
			Accepted:   ok,
			RecordedAt: l.now().UTC(),
		}
		if err := l.store.Record(ctx, entry); err != nil {
			// the journal is an audit trail; the frame still ran
			l.logger.Error("recording synced action",
				zap.Int("frame", frame),
				zap.String("command", a.Command),
				zap.Error(err),
			)
		}
	}

	if l.lua != nil {
		l.lua.GameFrame(frame)
	}

	if _, target, active := l.world.Game.Skip(); active && frame >= target {
		l.world.Game.EndSkip()
		l.logger.Info("skip finished", zap.Int("frame", frame))
	}
	return frame, results
}

// Run steps one frame per interval until ctx is cancelled. While a skip is
// active, frames are simulated back to back until the skip target.
//
// Postcondition: Returns nil once ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Step(ctx)
			for l.skipping() {
				if ctx.Err() != nil {
					return nil
				}
				l.Step(ctx)
			}
		}
	}
}

func (l *Loop) skipping() bool {
	_, _, active := l.world.Game.Skip()
	return active
}

// Replay re-executes journaled entries at their recorded frames, stepping
// until the last entry's frame has run.
//
// Precondition: entries are ordered by Seq and every Frame is in the future.
// Postcondition: Returns ErrReplayDiverged if any result differs from the
// recorded Accepted flag; the replay still runs to completion.
func (l *Loop) Replay(ctx context.Context, entries []journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	last := l.Frame()
	for _, e := range entries {
		a := synced.Action{Command: e.Command, Args: e.Args, PlayerID: e.PlayerID}
		if err := l.scheduleAt(e.Frame, a); err != nil {
			return fmt.Errorf("replaying entry %d: %w", e.Seq, err)
		}
		last = max(last, e.Frame)
	}

	next := 0
	diverged := 0
	for l.Frame() < last {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, results := l.Step(ctx)
		for _, ok := range results {
			if next >= len(entries) {
				break
			}
			e := entries[next]
			next++
			if ok != e.Accepted {
				diverged++
				l.logger.Warn("replayed action diverged",
					zap.Int("frame", frame),
					zap.Int64("seq", e.Seq),
					zap.String("command", e.Command),
					zap.Bool("recorded", e.Accepted),
					zap.Bool("replayed", ok),
				)
			}
		}
	}
	if diverged > 0 {
		return fmt.Errorf("%w: %d of %d actions", ErrReplayDiverged, diverged, len(entries))
	}
	return nil
}
