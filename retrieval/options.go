package retrieval

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/lexcite/core"
)

// Defaults.
const (
	DefaultTopK       = 25
	DefaultVectorTopK = 50
	DefaultScoreBand  = 0.15
)

// DefaultTypePriority orders chunk types from highest to lowest legal authority.
// Types not listed sort after all listed ones.
var DefaultTypePriority = []core.ChunkType{
	core.ChunkTypeJudgment,
	core.ChunkTypeDefinition,
	core.ChunkTypeOperative,
	core.ChunkTypeRule,
	core.ChunkTypeNotification,
	core.ChunkTypeCircular,
	core.ChunkTypeAnalyticalReview,
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTopK sets the number of chunks returned when Retrieve is called with k <= 0.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k <= 0 {
			return fmt.Errorf("%w: top k must be positive, got %d", ErrInvalidOption, k)
		}
		r.topK = k
		return nil
	}
}

// WithVectorTopK sets how many nearest neighbours are requested from the vector backend.
func WithVectorTopK(k int) Option {
	return func(r *Retriever) error {
		if k <= 0 {
			return fmt.Errorf("%w: vector top k must be positive, got %d", ErrInvalidOption, k)
		}
		r.vectorTopK = k
		return nil
	}
}

// WithScoreBand sets the width of the score bands used by the hierarchy tie-break.
func WithScoreBand(band float64) Option {
	return func(r *Retriever) error {
		if band < 0 {
			return fmt.Errorf("%w: score band must not be negative, got %v", ErrInvalidOption, band)
		}
		r.scoreBand = band
		return nil
	}
}

// WithTypePriority replaces the chunk type priority list.
func WithTypePriority(types ...core.ChunkType) Option {
	return func(r *Retriever) error {
		if len(types) == 0 {
			return fmt.Errorf("%w: type priority must not be empty", ErrInvalidOption)
		}
		r.priority = priorityRanks(types)
		return nil
	}
}

// WithMonitor attaches a monitor that observes every retrieval.
func WithMonitor(monitor RetrievalMonitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

func priorityRanks(types []core.ChunkType) map[core.ChunkType]int {
	ranks := make(map[core.ChunkType]int, len(types))
	for i, t := range types {
		if _, ok := ranks[t]; !ok {
			ranks[t] = i
		}
	}
	return ranks
}
