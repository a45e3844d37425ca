package attribution

import (
	"fmt"
	"log/slog"
	"time"
)

// Defaults.
const (
	DefaultStrictThreshold   = 0.75
	DefaultRelaxedThreshold  = 0.6
	DefaultMaxCandidates     = 5
	DefaultMaxWorkers        = 5
	DefaultTimeout           = 120 * time.Second
	DefaultMinDriftRatio     = 0.7
	DefaultMaxDriftRatio     = 1.3
	DefaultFallbackChunkSize = 64
)

// Option configures an Attributor.
type Option func(*Attributor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Attributor) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithStrictThreshold sets the score a candidate needs to be preferred.
func WithStrictThreshold(threshold float64) Option {
	return func(a *Attributor) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%w: strict threshold must be in (0, 1], got %v", ErrInvalidOption, threshold)
		}
		a.strictThreshold = threshold
		return nil
	}
}

// WithRelaxedThreshold sets the score accepted when no candidate reaches the
// strict threshold.
func WithRelaxedThreshold(threshold float64) Option {
	return func(a *Attributor) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%w: relaxed threshold must be in (0, 1], got %v", ErrInvalidOption, threshold)
		}
		a.relaxedThreshold = threshold
		return nil
	}
}

// WithMaxCandidates caps the citations kept per party pair.
func WithMaxCandidates(n int) Option {
	return func(a *Attributor) error {
		if n < 1 {
			return fmt.Errorf("%w: max candidates must be positive, got %d", ErrInvalidOption, n)
		}
		a.maxCandidates = n
		return nil
	}
}

// WithMaxWorkers caps the number of pairs matched concurrently.
func WithMaxWorkers(n int) Option {
	return func(a *Attributor) error {
		if n < 1 {
			n = 1
		}
		a.maxWorkers = n
		return nil
	}
}

// WithTimeout bounds the whole attribution step, streaming included.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Attributor) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidOption, timeout)
		}
		a.timeout = timeout
		return nil
	}
}

// WithDriftBounds sets the accepted range of output/input length ratios.
// Ratios outside it are logged as content drift.
func WithDriftBounds(minRatio, maxRatio float64) Option {
	return func(a *Attributor) error {
		if minRatio <= 0 || maxRatio < minRatio {
			return fmt.Errorf("%w: drift bounds [%v, %v]", ErrInvalidOption, minRatio, maxRatio)
		}
		a.minDrift, a.maxDrift = minRatio, maxRatio
		return nil
	}
}

// WithFallbackChunkSize sets the fragment size, in characters, used when the
// original answer is streamed back unchanged.
func WithFallbackChunkSize(size int) Option {
	return func(a *Attributor) error {
		if size < 1 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidOption, size)
		}
		a.chunkSize = size
		return nil
	}
}
