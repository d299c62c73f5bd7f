package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWilsonIntervalNoTrials(t *testing.T) {
	lower, upper := WilsonInterval(0, 0, 0.95)
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 0.0, upper)
}

func TestWilsonIntervalContainsProportion(t *testing.T) {
	lower, upper := WilsonInterval(50, 100, 0.95)
	assert.Less(t, lower, 0.5)
	assert.Greater(t, upper, 0.5)
	assert.GreaterOrEqual(t, lower, 0.0)
	assert.LessOrEqual(t, upper, 1.0)
}

func TestWilsonIntervalNarrowsWithSample(t *testing.T) {
	smallLower, smallUpper := WilsonInterval(5, 10, 0.95)
	largeLower, largeUpper := WilsonInterval(500, 1000, 0.95)
	assert.Less(t, largeUpper-largeLower, smallUpper-smallLower)
}

func TestWilsonIntervalClamped(t *testing.T) {
	lower, _ := WilsonInterval(0, 10, 0.95)
	_, upper := WilsonInterval(10, 10, 0.95)
	assert.GreaterOrEqual(t, lower, 0.0)
	assert.LessOrEqual(t, upper, 1.0)
}

func TestZScoreCommonValues(t *testing.T) {
	assert.InDelta(t, 1.96, ZScore(0.95), 0.001)
	assert.InDelta(t, 2.576, ZScore(0.99), 0.001)
	assert.InDelta(t, 1.645, ZScore(0.90), 0.001)
}

func TestApproximateZScore(t *testing.T) {
	// The approximation should agree with the table values
	assert.InDelta(t, 0.674, approximateZScore(0.5), 0.01)
}
