package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func signal(label string, score float64) *model.TrendSignal {
	return &model.TrendSignal{TotalScore: score, Tier: model.TrendTier{Label: label}}
}

func TestManager_UpdateReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tracker.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	changes := m.Update("BTC", t0, &model.TrendSnapshot{SupportSlope: 0.01, ResistanceSlope: 0.02}, signal("Uptrend", 0.5))
	assert.Equal(t, []string{"first scan: Uptrend"}, changes)

	changes = m.Update("BTC", t0, &model.TrendSnapshot{SupportSlope: -0.01}, signal("Range", 0))
	assert.Empty(t, changes, "same bar is not reported twice")

	t1 := t0.Add(time.Hour)
	changes = m.Update("BTC", t1, &model.TrendSnapshot{SupportSlope: -0.01, ResistanceSlope: 0.02}, signal("Range", 0.1))
	assert.Equal(t, []string{"Uptrend → Range", "support turned down"}, changes)

	t2 := t1.Add(time.Hour)
	changes = m.Update("BTC", t2, &model.TrendSnapshot{SupportSlope: -0.02, ResistanceSlope: 0.01}, signal("Range", 0.3))
	assert.Empty(t, changes)

	avg, n := m.AverageScore("BTC")
	assert.Equal(t, 3, n)
	assert.InDelta(t, 0.3, avg, 1e-12)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	st, ok := reloaded.GetState("BTC")
	require.True(t, ok)
	assert.Equal(t, "Range", st.Label)
	assert.Equal(t, t2, st.LastBarAt.UTC())
	assert.Len(t, st.RecentScores, 3)
}

func TestManager_CapsRecentScores(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	t0 := time.Now()
	for i := 0; i < 20; i++ {
		m.Update("ETH", t0.Add(time.Duration(i)*time.Minute), &model.TrendSnapshot{}, signal("Range", float64(i)))
	}
	st, ok := m.GetState("ETH")
	require.True(t, ok)
	require.Len(t, st.RecentScores, maxRecentScores)
	assert.Equal(t, 8.0, st.RecentScores[0])

	_, ok = m.GetState("missing")
	assert.False(t, ok)
}
