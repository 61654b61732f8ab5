package service

import (
	"math"
	"testing"

	"prizewheel/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource returns the queued values in order, then repeats the last one
type fixedSource struct {
	values []int
}

func (s *fixedSource) IntN(n int) (int, error) {
	v := s.values[0]
	if len(s.values) > 1 {
		s.values = s.values[1:]
	}
	return v % n, nil
}

func TestSelectionEngine_Select_EmptyTable(t *testing.T) {
	engine := NewSelectionEngine(NewSeededSource(1, 2))

	_, err := engine.Select(models.PrizeTable{})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestSelectionEngine_Select_BlankLabel(t *testing.T) {
	engine := NewSelectionEngine(NewSeededSource(1, 2))

	_, err := engine.Select(models.PrizeTable{"A", "  "})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestSelectionEngine_Select_SingleSlot(t *testing.T) {
	engine := NewSelectionEngine(NewSeededSource(7, 11))
	table := models.PrizeTable{"ELECTROMENOR"}

	for i := 0; i < 100; i++ {
		candidate, err := engine.Select(table)
		require.NoError(t, err)
		assert.Equal(t, 0, candidate.Index)
		assert.Equal(t, "ELECTROMENOR", candidate.Prize)
	}
}

func TestSelectionEngine_Select_CandidateMatchesTable(t *testing.T) {
	engine := NewSelectionEngine(&fixedSource{values: []int{4}})

	candidate, err := engine.Select(models.DefaultPrizeTable)
	require.NoError(t, err)
	assert.Equal(t, 4, candidate.Index)
	assert.Equal(t, "REGALO SORPRESA", candidate.Prize)
	assert.True(t, models.DefaultPrizeTable.Contains(candidate.Prize, candidate.Index))
}

func TestSelectionEngine_Select_Uniform(t *testing.T) {
	engine := NewSelectionEngine(NewSeededSource(42, 1024))
	table := models.DefaultPrizeTable
	const draws = 60000

	indexCounts := make([]int, len(table))
	labelCounts := make(map[string]int)
	for i := 0; i < draws; i++ {
		candidate, err := engine.Select(table)
		require.NoError(t, err)
		indexCounts[candidate.Index]++
		labelCounts[candidate.Prize]++
	}

	expectedPerIndex := float64(draws) / float64(len(table))
	for index, count := range indexCounts {
		deviation := math.Abs(float64(count)-expectedPerIndex) / expectedPerIndex
		assert.Less(t, deviation, 0.05, "index %d drawn %d times", index, count)
	}

	for _, label := range table.Labels() {
		observed := float64(labelCounts[label]) / draws
		assert.InDelta(t, table.Weight(label), observed, 0.01, "label %s", label)
	}
}

func TestSelectionEngine_Select_DefaultsToCryptoSource(t *testing.T) {
	engine := NewSelectionEngine(nil)

	for i := 0; i < 50; i++ {
		candidate, err := engine.Select(models.DefaultPrizeTable)
		require.NoError(t, err)
		assert.True(t, models.DefaultPrizeTable.Contains(candidate.Prize, candidate.Index))
	}
}

func TestCryptoSource_InvalidRange(t *testing.T) {
	_, err := CryptoSource{}.IntN(0)
	assert.Error(t, err)
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := NewSeededSource(3, 5)
	b := NewSeededSource(3, 5)

	for i := 0; i < 20; i++ {
		va, err := a.IntN(1000)
		require.NoError(t, err)
		vb, err := b.IntN(1000)
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
}
