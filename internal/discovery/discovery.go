// Package discovery finds the next range of remote session numbers worth
// fetching. The remote sequence has real gaps (cancelled sittings) and no
// advertised end, so the search tolerates misses but stops after a bounded run
// of consecutive ones.
package discovery

import (
	"context"
	"log/slog"

	"github.com/politia/politia/internal/errors"
)

// DefaultMaxConsecutiveMisses bounds exploration past the true end of the
// sequence while still stepping over occasional gaps.
const DefaultMaxConsecutiveMisses = 5

// Prober answers whether the remote source has a record for a session number.
// Existence is a cheap boundary check, not a full fetch.
type Prober interface {
	SessionExists(ctx context.Context, sessionNumber int) (bool, error)
}

type Options struct {
	// MaxConsecutiveMisses stops the search after this many sequential numbers
	// in a row do not exist. Zero means DefaultMaxConsecutiveMisses.
	MaxConsecutiveMisses int
	// MaxNew caps how many new numbers one run may accept. Zero means no cap.
	MaxNew int
}

// Result describes one discovery run.
type Result struct {
	// Found holds the newly discoverable session numbers in ascending order.
	Found []int
	// Probed counts the existence probes issued.
	Probed int
	// HighestProbed is the last sequence number probed, zero when none were.
	HighestProbed int
	// Deferred is set when no local watermark exists: the search performs zero
	// probes and the caller must supply an explicit manual range instead.
	Deferred bool
	// Exhausted is set when the search ran and found nothing new. This is a
	// legitimate terminal state, distinct from Deferred, and not an error.
	Exhausted bool
}

type Discoverer struct {
	prober Prober
	logger *slog.Logger
	opts   Options
}

func NewDiscoverer(prober Prober, logger *slog.Logger, opts Options) *Discoverer {
	if opts.MaxConsecutiveMisses <= 0 {
		opts.MaxConsecutiveMisses = DefaultMaxConsecutiveMisses
	}
	return &Discoverer{
		prober: prober,
		logger: logger.With("source", "Discoverer"),
		opts:   opts,
	}
}

// Discover probes forward from the watermark, one sequence number at a time.
// hasWatermark is false when nothing is materialized locally yet; discovery then
// defers entirely to a manual range rather than probing blind.
func (d *Discoverer) Discover(ctx context.Context, watermark int, hasWatermark bool) (Result, error) {
	if !hasWatermark {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "no local watermark, deferring to manual range")
		return Result{Deferred: true}, nil
	}

	var result Result
	misses := 0
	for number := watermark + 1; ; number++ {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "discovery cancelled")
		}

		exists, err := d.prober.SessionExists(ctx, number)
		result.Probed++
		result.HighestProbed = number
		if err != nil {
			// A failed probe yields no record for that number; the run of misses
			// still bounds the search.
			d.logger.LogAttrs(ctx, slog.LevelWarn, "existence probe failed",
				slog.Int("sessionNumber", number), errors.SlogError(err))
			exists = false
		}

		if exists {
			misses = 0
			result.Found = append(result.Found, number)
			if d.opts.MaxNew > 0 && len(result.Found) >= d.opts.MaxNew {
				d.logger.LogAttrs(ctx, slog.LevelInfo, "reached cap on new records",
					slog.Int("maxNew", d.opts.MaxNew))
				break
			}
			continue
		}

		misses++
		if misses >= d.opts.MaxConsecutiveMisses {
			break
		}
	}

	result.Exhausted = len(result.Found) == 0
	d.logger.LogAttrs(ctx, slog.LevelInfo, "discovery finished",
		slog.Int("watermark", watermark),
		slog.Int("found", len(result.Found)),
		slog.Int("probed", result.Probed),
		slog.Int("highestProbed", result.HighestProbed))
	return result, nil
}
