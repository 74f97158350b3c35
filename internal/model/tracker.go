package model

import "time"

// TrackerState is the last reported signal for one symbol.
type TrackerState struct {
	Symbol          string    `json:"symbol"`
	Label           string    `json:"label"`
	TotalScore      float64   `json:"total_score"`
	SupportSlope    float64   `json:"support_slope"`
	ResistanceSlope float64   `json:"resistance_slope"`
	RecentScores    []float64 `json:"recent_scores"`
	LastBarAt       time.Time `json:"last_bar_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
