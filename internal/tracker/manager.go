package tracker

import (
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"TrendSentinel/internal/model"
)

const maxRecentScores = 12

// Manager remembers the last signal per symbol and reports what changed.
type Manager struct {
	mu       sync.Mutex
	states   map[string]*model.TrackerState
	filePath string
}

// NewManager creates a Manager, loading state from disk. An empty filePath keeps state in memory only.
func NewManager(filePath string) (*Manager, error) {
	states := map[string]*model.TrackerState{}
	if filePath != "" {
		loaded, err := LoadStates(filePath)
		if err != nil {
			return nil, fmt.Errorf("load tracker state: %w", err)
		}
		states = loaded
	}
	return &Manager{states: states, filePath: filePath}, nil
}

// GetState returns a copy of the state for symbol.
func (m *Manager) GetState(symbol string) (model.TrackerState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[symbol]
	if !ok {
		return model.TrackerState{}, false
	}
	cp := *st
	cp.RecentScores = append([]float64(nil), st.RecentScores...)
	return cp, true
}

// Update records the latest signal and returns human-readable changes since
// the previous one. A bar that was already recorded yields no changes.
func (m *Manager) Update(symbol string, barAt time.Time, snap *model.TrendSnapshot, signal *model.TrendSignal) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, seen := m.states[symbol]
	if seen && !barAt.After(prev.LastBarAt) {
		return nil
	}

	var changes []string
	switch {
	case !seen:
		changes = append(changes, fmt.Sprintf("first scan: %s", signal.Tier.Label))
	default:
		if prev.Label != signal.Tier.Label {
			changes = append(changes, fmt.Sprintf("%s → %s", prev.Label, signal.Tier.Label))
		}
		if flipped(prev.SupportSlope, snap.SupportSlope) {
			changes = append(changes, fmt.Sprintf("support turned %s", direction(snap.SupportSlope)))
		}
		if flipped(prev.ResistanceSlope, snap.ResistanceSlope) {
			changes = append(changes, fmt.Sprintf("resistance turned %s", direction(snap.ResistanceSlope)))
		}
	}

	st := prev
	if !seen {
		st = &model.TrackerState{Symbol: symbol}
		m.states[symbol] = st
	}
	st.Label = signal.Tier.Label
	st.TotalScore = signal.TotalScore
	st.SupportSlope = snap.SupportSlope
	st.ResistanceSlope = snap.ResistanceSlope
	st.LastBarAt = barAt
	st.UpdatedAt = time.Now()
	st.RecentScores = append(st.RecentScores, signal.TotalScore)
	if len(st.RecentScores) > maxRecentScores {
		st.RecentScores = st.RecentScores[len(st.RecentScores)-maxRecentScores:]
	}

	if err := m.save(); err != nil {
		log.Errorf("failed to save tracker state: %v", err)
	}
	return changes
}

// AverageScore returns the mean of the recent scores for symbol.
func (m *Manager) AverageScore(symbol string) (float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[symbol]
	if !ok || len(st.RecentScores) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, s := range st.RecentScores {
		sum += s
	}
	return sum / float64(len(st.RecentScores)), len(st.RecentScores)
}

func flipped(prev, cur float64) bool {
	return prev != 0 && cur != 0 && math.Signbit(prev) != math.Signbit(cur)
}

func direction(slope float64) string {
	if slope > 0 {
		return "up"
	}
	return "down"
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveStates(m.filePath, m.states)
}
