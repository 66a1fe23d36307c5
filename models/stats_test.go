package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEfficiency(t *testing.T) {
	assert.InDelta(t, 2.0, Efficiency(10, 10, 10), 0.0001)
	assert.InDelta(t, 1.5, Efficiency(10, 10, 5), 0.0001)

	// Zero deaths clamp to one instead of dividing by zero.
	assert.InDelta(t, 15.0, Efficiency(10, 0, 5), 0.0001)
	assert.InDelta(t, 0.0, Efficiency(0, 0, 0), 0.0001)
}

func TestKillsDeathsRatio(t *testing.T) {
	assert.InDelta(t, 1.0, KillsDeathsRatio(10, 10), 0.0001)
	assert.InDelta(t, 2.5, KillsDeathsRatio(5, 2), 0.0001)
	assert.InDelta(t, 7.0, KillsDeathsRatio(7, 0), 0.0001)
}

func TestKillsDeathsAssists(t *testing.T) {
	assert.InDelta(t, 1.25, KillsDeathsAssists(10, 10, 5), 0.0001)
	assert.InDelta(t, 12.5, KillsDeathsAssists(10, 0, 5), 0.0001)

	// Half assists must not truncate to integer math.
	assert.InDelta(t, 1.5, KillsDeathsAssists(1, 1, 1), 0.0001)
}

func TestStatLineRatios(t *testing.T) {
	stats := &CharacterActivityStats{Kills: 20, Deaths: 4, Assists: 8}

	assert.InDelta(t, 7.0, stats.Efficiency(), 0.0001)
	assert.InDelta(t, 5.0, stats.KillsDeathsRatio(), 0.0001)
	assert.InDelta(t, 6.0, stats.KillsDeathsAssists(), 0.0001)
}

func TestSummaryDerived(t *testing.T) {
	summary := &ActivitySummary{TotalActivities: 10, Wins: 6, Kills: 100, Deaths: 50, Assists: 20}

	assert.Equal(t, 4, summary.Losses())
	assert.InDelta(t, 60.0, summary.WinPercentage(), 0.0001)
	assert.InDelta(t, 2.4, summary.Efficiency(), 0.0001)
	assert.InDelta(t, 2.0, summary.KillsDeathsRatio(), 0.0001)

	empty := &ActivitySummary{}
	assert.Equal(t, 0, empty.Losses())
	assert.InDelta(t, 0.0, empty.WinPercentage(), 0.0001)
}
