package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// GameMode identifies one of the fixed play modes.
type GameMode string

const (
	ModeNormal   GameMode = "normal"
	ModeRanked   GameMode = "ranked"
	ModeTarget   GameMode = "target"
	ModeColor    GameMode = "color"
	ModeSequence GameMode = "sequence"
)

// Modes lists every game mode in canonical order. Ties between modes
// (favorite mode, worst mode) are broken by this order.
var Modes = []GameMode{ModeNormal, ModeRanked, ModeTarget, ModeColor, ModeSequence}

// Valid reports whether m is one of the known game modes.
func (m GameMode) Valid() bool {
	for _, mode := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// MissThresholdMs is the round-time sentinel: any round at or above this
// value was a miss/timeout, not a real reaction.
const MissThresholdMs = 3000.0

// DeviceType classifies the device a game was played on.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
)

// DeviceInfo captures where a game session was played.
type DeviceInfo struct {
	Type      DeviceType `json:"type"`
	UserAgent string     `json:"user_agent,omitempty"`
}

// GameResult is one completed game session. Results are per-round reaction
// times in milliseconds. A result is immutable once created; it is appended
// to the ordered history and never edited.
type GameResult struct {
	GameID            string     `json:"game_id"`
	Results           []float64  `json:"results"`
	GameMode          GameMode   `json:"game_mode"`
	Timestamp         time.Time  `json:"timestamp"`
	Accuracy          float64    `json:"accuracy"`
	DeviceInfo        DeviceInfo `json:"device_info"`
	SessionDurationMs int64      `json:"session_duration_ms,omitempty"`
}

// NewGameResult builds a result with a fresh ID and the current timestamp.
func NewGameResult(results []float64, mode GameMode, accuracy float64, sessionDurationMs int64, device DeviceInfo) GameResult {
	return GameResult{
		GameID:            uuid.New().String(),
		Results:           results,
		GameMode:          mode,
		Timestamp:         time.Now(),
		Accuracy:          accuracy,
		DeviceInfo:        device,
		SessionDurationMs: sessionDurationMs,
	}
}

// AverageTime returns the arithmetic mean of the round times, 0 for an
// empty round list.
func (g GameResult) AverageTime() float64 {
	return Mean(g.Results)
}

// ComputedAccuracy returns the percentage of rounds under the miss
// threshold, 0 for an empty round list.
func ComputedAccuracy(results []float64) float64 {
	if len(results) == 0 {
		return 0
	}
	hits := 0
	for _, r := range results {
		if r < MissThresholdMs {
			hits++
		}
	}
	return float64(hits) / float64(len(results)) * 100
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values. Empty and
// single-element slices have no spread and yield 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
