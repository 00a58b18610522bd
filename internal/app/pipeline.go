package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/segment"
)

// StreamOptions selects how live frames are scored.
type StreamOptions struct {
	Smart        bool
	Mode         segment.ScaleMode
	ScreenWidth  float64
	ScreenHeight float64
}

// EmitFunc receives each scored frame, or the error that frame produced.
// Returning an error stops the stream.
type EmitFunc func(Report, error) error

// Stream scores every pose read from src against a session's segment.
//
// Loop:
//  1. Read the next pose; stop when the source is exhausted or fails
//  2. Drop frames whose timestamp goes backwards
//  3. Score with Analyze or AnalyzeSmart
//  4. Hand the report (or the per-frame error) to emit
//
// An unknown session ends the stream. Per-frame scoring errors do not.
// The caller owns src.
func (a *App) Stream(ctx context.Context, id string, src pose.Source, opts StreamOptions, emit EmitFunc) error {
	if _, err := a.lookup(id); err != nil {
		return err
	}

	a.config.Metrics.StreamOpened()
	defer a.config.Metrics.StreamClosed()

	var (
		last   uint64
		frames int
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, ok, err := src.Next()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if !ok {
			a.log.Debug("stream ended", "session", id, "frames", frames)
			return nil
		}

		if frames > 0 && p.Timestamp < last {
			a.log.Debug("dropping out-of-order frame", "session", id, "timestamp", p.Timestamp, "last", last)
			continue
		}
		last = p.Timestamp
		frames++

		var report Report
		if opts.Smart {
			report, err = a.AnalyzeSmart(id, p, opts.Mode, opts.ScreenWidth, opts.ScreenHeight)
		} else {
			report, err = a.Analyze(id, p)
		}
		if err != nil && isSessionGone(err) {
			return err
		}

		if err := emit(report, err); err != nil {
			return err
		}
	}
}

func isSessionGone(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
