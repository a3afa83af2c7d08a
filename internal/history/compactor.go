package history

import (
	"fmt"
	"sort"

	"beadchat/internal/logging"
)

// Strategy selects which turns survive compaction.
type Strategy string

const (
	// StrategyRecent keeps the last limit turns. The default.
	StrategyRecent Strategy = "recent"

	// StrategyFirst keeps the first ceil(limit/2) and last floor(limit/2)
	// turns, preserving opening context plus the latest exchanges.
	StrategyFirst Strategy = "first"

	// StrategyMiddle samples turns evenly across the full sequence and
	// always includes the very last turn.
	StrategyMiddle Strategy = "middle"
)

// ParseStrategy maps a config value to a Strategy, falling back to recent.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFirst:
		return StrategyFirst
	case StrategyMiddle:
		return StrategyMiddle
	default:
		return StrategyRecent
	}
}

// ErrInvalidLimit is returned when compaction is asked for a non-positive
// limit. Sending zero-context history is never useful, so this is treated as
// a configuration error rather than clamped.
var ErrInvalidLimit = fmt.Errorf("compaction limit must be positive")

// Compact reduces turns to at most limit entries using the given strategy.
// The input is never mutated; the result is a new slice ordered by sequence
// number ascending regardless of strategy. When the input already fits, it
// is returned unchanged.
func Compact(turns []Turn, limit int, strategy Strategy) ([]Turn, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if len(turns) <= limit {
		return turns, nil
	}

	var kept []Turn
	switch strategy {
	case StrategyFirst:
		kept = compactFirst(turns, limit)
	case StrategyMiddle:
		kept = compactMiddle(turns, limit)
	default:
		kept = compactRecent(turns, limit)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Seq < kept[j].Seq })

	logging.Get(logging.CategoryHistory).Debug("Compacted %d turns to %d (strategy=%s, limit=%d)",
		len(turns), len(kept), strategy, limit)
	return kept, nil
}

// compactRecent keeps the last limit turns.
func compactRecent(turns []Turn, limit int) []Turn {
	out := make([]Turn, limit)
	copy(out, turns[len(turns)-limit:])
	return out
}

// compactFirst keeps bookends: the opening turns carry task framing, the
// trailing turns carry the live exchange.
func compactFirst(turns []Turn, limit int) []Turn {
	head := (limit + 1) / 2
	tail := limit - head

	out := make([]Turn, 0, limit)
	out = append(out, turns[:head]...)
	out = append(out, turns[len(turns)-tail:]...)
	return out
}

// compactMiddle samples at a fixed stride across the whole sequence and
// force-includes the final turn so the most recent exchange is never
// dropped. The result may come in under limit when the stride lands on the
// final turn.
func compactMiddle(turns []Turn, limit int) []Turn {
	total := len(turns)
	stride := (total + limit - 1) / limit

	out := make([]Turn, 0, limit)
	for i := 0; i < total && len(out) < limit; i += stride {
		out = append(out, turns[i])
	}

	last := turns[total-1]
	if len(out) == 0 || out[len(out)-1].Seq != last.Seq {
		if len(out) == limit {
			out = out[:limit-1]
		}
		out = append(out, last)
	}
	return out
}
