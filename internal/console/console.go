// Package console feeds operator input lines into the frame loop as synced
// actions of the local player.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/game/synced"
)

// Submitter queues synced actions. *lockstep.Loop satisfies it.
type Submitter interface {
	Submit(ctx context.Context, a synced.Action) (int, error)
}

// Console reads one command per line.
type Console struct {
	in     io.Reader
	out    io.Writer
	player int
	loop   Submitter
	help   func() []string
	logger *zap.Logger
}

// New creates a Console submitting as player.
//
// Precondition: in, out, loop, help, and logger must be non-nil.
func New(in io.Reader, out io.Writer, player int, loop Submitter, help func() []string, logger *zap.Logger) *Console {
	if in == nil || out == nil || loop == nil || help == nil || logger == nil {
		panic("console.New: arguments must not be nil")
	}
	return &Console{in: in, out: out, player: player, loop: loop, help: help, logger: logger}
}

// Run reads lines until EOF or ctx is cancelled. "/help" lists the commands;
// any other "/" line is queued for the next frame. Lines without a leading
// slash are treated as plain chat and only logged.
//
// Postcondition: Returns nil at EOF or cancellation, or the read error.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.handle(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading console: %w", err)
	}
	return nil
}

func (c *Console) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.EqualFold(line, "/help") {
		for _, h := range c.help() {
			fmt.Fprintln(c.out, h)
		}
		return nil
	}

	a, ok := synced.ParseChat(line, c.player)
	if !ok {
		c.logger.Info("chat", zap.Int("player", c.player), zap.String("msg", line))
		return nil
	}
	frame, err := c.loop.Submit(ctx, a)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("submitting %q: %w", a.Command, err)
	}
	c.logger.Debug("synced action queued",
		zap.String("command", a.Command),
		zap.String("args", a.Args),
		zap.Int("frame", frame),
	)
	return nil
}
