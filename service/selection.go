package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mathrand "math/rand/v2"
	"sync"

	"prizewheel/models"
)

// CryptoSource draws from crypto/rand. rand.Int rejects out-of-range samples so
// every index is equally likely.
type CryptoSource struct{}

// IntN returns a uniform integer in [0, n)
func (CryptoSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random number: %w", err)
	}
	return int(v.Int64()), nil
}

// SeededSource is a deterministic source for tests and simulations
type SeededSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeededSource creates a PCG-backed source from two seed words
func NewSeededSource(seed1, seed2 uint64) *SeededSource {
	return &SeededSource{rng: mathrand.New(mathrand.NewPCG(seed1, seed2))}
}

// IntN returns a uniform integer in [0, n)
func (s *SeededSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n), nil
}

// SelectionEngine draws a candidate prize from a table. It has no notion of
// whether the participant already claimed.
type SelectionEngine struct {
	source RandomSource
}

// NewSelectionEngine creates an engine over source, falling back to crypto/rand
func NewSelectionEngine(source RandomSource) *SelectionEngine {
	if source == nil {
		source = CryptoSource{}
	}
	return &SelectionEngine{source: source}
}

// Select picks a uniformly random slot of table
func (e *SelectionEngine) Select(table models.PrizeTable) (models.Candidate, error) {
	if len(table) == 0 {
		return models.Candidate{}, &ConfigurationError{Reason: "prize table is empty"}
	}
	if err := table.Validate(); err != nil {
		return models.Candidate{}, &ConfigurationError{Reason: err.Error()}
	}

	index, err := e.source.IntN(len(table))
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to draw prize: %w", err)
	}
	if index < 0 || index >= len(table) {
		return models.Candidate{}, fmt.Errorf("random source returned %d outside [0, %d)", index, len(table))
	}

	return models.Candidate{Prize: table[index], Index: index}, nil
}
