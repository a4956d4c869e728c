// Package insight turns analyzer output into qualitative artifacts:
// strengths, weaknesses, recommendations, a next goal, and ranked
// personalized messages. Everything here is deterministic for a given
// input, so the whole package is unit-testable without fixtures.
package insight

import (
	"fmt"
	"time"

	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/settings"
)

// Threshold constants for the qualitative rules. Times are milliseconds.
const (
	eliteRank  = 10
	strongRank = 25
	weakRank   = 70

	tightConsistencyMs  = 100
	steadyConsistencyMs = 200
	looseConsistencyMs  = 300

	rapidImprovementPct  = 10
	steadyImprovementPct = 5

	longStreak  = 10
	shortStreak = 5

	// A mode needs this many games before it is judged.
	modeJudgmentGames = 3

	// defaultBestHour is used when no hour qualifies yet.
	defaultBestHour = 14
)

// Generator derives insights and messages. Construct once with the
// settings source and a clock; inject everywhere.
type Generator struct {
	settings func() settings.Settings
	now      func() time.Time
}

// NewGenerator creates a generator reading live settings from settingsFn.
func NewGenerator(settingsFn func() settings.Settings) *Generator {
	return &Generator{settings: settingsFn, now: time.Now}
}

// GenerateUserInsights builds the qualitative view from the metrics and
// breakdowns of one analysis pass.
func (g *Generator) GenerateUserInsights(metrics domain.PerformanceMetrics, timeBased []domain.HourlyPerformance, modeBased []domain.ModePerformance) domain.UserInsights {
	bestHour, bestHourAvg := bestTimeOfDay(timeBased)
	bestMode := bestMode(modeBased)

	insights := domain.UserInsights{
		Strengths:       g.strengths(metrics, bestMode, modeBased),
		Weaknesses:      g.weaknesses(metrics, modeBased),
		BestHour:        bestHour,
		BestHourAverage: bestHourAvg,
		BestMode:        bestMode,
		RecommendedMode: recommendedMode(metrics, modeBased),
	}
	insights.NextGoal = g.nextGoal(metrics)
	return insights
}

func (g *Generator) strengths(metrics domain.PerformanceMetrics, best domain.GameMode, modeBased []domain.ModePerformance) []string {
	var out []string

	switch {
	case metrics.Rank <= eliteRank:
		out = append(out, "Elite reaction speed, in the top 10% of players")
	case metrics.Rank <= strongRank:
		out = append(out, "Fast reactions, comfortably in the top quarter")
	}

	switch {
	case metrics.Consistency > 0 && metrics.Consistency < tightConsistencyMs:
		out = append(out, "Exceptionally tight timing from round to round")
	case metrics.Consistency > 0 && metrics.Consistency < steadyConsistencyMs:
		out = append(out, "Steady, reliable round times")
	}

	switch {
	case metrics.Improvement > rapidImprovementPct:
		out = append(out, "Improving rapidly game over game")
	case metrics.Improvement > steadyImprovementPct:
		out = append(out, "On a clear upward trend")
	}

	switch {
	case metrics.Streak >= longStreak:
		out = append(out, fmt.Sprintf("On fire: %d successful games in a row", metrics.Streak))
	case metrics.Streak >= shortStreak:
		out = append(out, fmt.Sprintf("Building momentum with a %d-game streak", metrics.Streak))
	}

	for _, mp := range modeBased {
		if mp.Mode == best && mp.GamesPlayed > modeJudgmentGames {
			out = append(out, fmt.Sprintf("Strong command of %s mode", best))
			break
		}
	}

	if len(out) == 0 {
		out = append(out, "Plenty of growth potential, keep playing to reveal your strengths")
	}
	return out
}

func (g *Generator) weaknesses(metrics domain.PerformanceMetrics, modeBased []domain.ModePerformance) []string {
	var out []string

	if metrics.Rank > weakRank {
		out = append(out, "Raw reaction speed has room to grow")
	}
	if metrics.Consistency > looseConsistencyMs {
		out = append(out, "Round times swing a lot, consistency needs work")
	}
	if metrics.Improvement < -steadyImprovementPct {
		out = append(out, "Recent games have been slower than your usual pace")
	}

	if worst, ok := worstMode(modeBased); ok {
		out = append(out, fmt.Sprintf("%s mode drags your average down", worst))
	}

	if len(out) == 0 {
		out = append(out, "No obvious weak spots, keep up the varied practice")
	}
	return out
}

// bestTimeOfDay picks the hour with the lowest average among hours with
// at least two games and a nonzero average.
func bestTimeOfDay(timeBased []domain.HourlyPerformance) (int, float64) {
	bestHour := defaultBestHour
	bestAvg := 0.0
	found := false

	for _, h := range timeBased {
		if h.GamesPlayed < 2 || h.AverageTime == 0 {
			continue
		}
		if !found || h.AverageTime < bestAvg {
			bestHour, bestAvg, found = h.Hour, h.AverageTime, true
		}
	}
	return bestHour, bestAvg
}

// bestMode is the played mode with the lowest per-round average.
func bestMode(modeBased []domain.ModePerformance) domain.GameMode {
	best := domain.ModeNormal
	bestAvg := 0.0
	found := false

	for _, mp := range modeBased {
		if mp.GamesPlayed == 0 || mp.AverageTime == 0 {
			continue
		}
		if !found || mp.AverageTime < bestAvg {
			best, bestAvg, found = mp.Mode, mp.AverageTime, true
		}
	}
	return best
}

// worstMode is a judged mode whose average exceeds 1.2x the overall
// average across judged modes.
func worstMode(modeBased []domain.ModePerformance) (domain.GameMode, bool) {
	var judged []domain.ModePerformance
	var overall []float64
	for _, mp := range modeBased {
		if mp.GamesPlayed > modeJudgmentGames && mp.AverageTime > 0 {
			judged = append(judged, mp)
			overall = append(overall, mp.AverageTime)
		}
	}
	if len(judged) == 0 {
		return "", false
	}

	overallAvg := domain.Mean(overall)
	worst := judged[0]
	for _, mp := range judged[1:] {
		if mp.AverageTime > worst.AverageTime {
			worst = mp
		}
	}
	if worst.AverageTime > overallAvg*1.2 {
		return worst.Mode, true
	}
	return "", false
}

// recommendedMode may differ from the best mode: it targets improvement.
// A volatile player is sent to normal to stabilize, a strong player is
// pushed toward ranked, otherwise the mode most in need of work wins.
func recommendedMode(metrics domain.PerformanceMetrics, modeBased []domain.ModePerformance) domain.GameMode {
	if metrics.Consistency > looseConsistencyMs {
		return domain.ModeNormal
	}
	if metrics.Rank <= strongRank {
		return domain.ModeRanked
	}

	needsWork := domain.GameMode("")
	worstAvg := 0.0
	for _, mp := range modeBased {
		if mp.GamesPlayed > modeJudgmentGames && mp.AverageTime > worstAvg {
			needsWork, worstAvg = mp.Mode, mp.AverageTime
		}
	}
	if needsWork != "" {
		return needsWork
	}
	return domain.ModeNormal
}

// Goal baselines, milliseconds.
const (
	timeGoalTargetMs       = 1000.0
	timeGoalBaselineMs     = 2000.0
	consistencyTargetMs    = 200.0
	consistencyBaselineMs  = 500.0
	advancedTimeTargetMs   = 800.0
	advancedTimeBaselineMs = 1200.0
	streakGoalCap          = 10
)

// nextGoal picks the next target by priority: time, then consistency,
// then streak, then an advanced time goal. Goal types the user disabled
// are skipped; the advanced time goal is the unconditional fallback.
func (g *Generator) nextGoal(metrics domain.PerformanceMetrics) domain.Goal {
	goals := g.settings().Goals

	if goals.TimeGoals && metrics.AverageTime > timeGoalTargetMs {
		return domain.Goal{
			Type:     domain.GoalTime,
			Target:   timeGoalTargetMs,
			Current:  metrics.AverageTime,
			Progress: progressToward(metrics.AverageTime, timeGoalBaselineMs, timeGoalTargetMs),
		}
	}

	if goals.ConsistencyGoals && metrics.Consistency > consistencyTargetMs {
		return domain.Goal{
			Type:     domain.GoalConsistency,
			Target:   consistencyTargetMs,
			Current:  metrics.Consistency,
			Progress: progressToward(metrics.Consistency, consistencyBaselineMs, consistencyTargetMs),
		}
	}

	if goals.StreakGoals && metrics.Streak < streakGoalCap {
		target := metrics.Streak + 5
		if target > streakGoalCap {
			target = streakGoalCap
		}
		return domain.Goal{
			Type:     domain.GoalStreak,
			Target:   float64(target),
			Current:  float64(metrics.Streak),
			Progress: float64(metrics.Streak) / streakGoalCap * 100,
		}
	}

	return domain.Goal{
		Type:     domain.GoalTime,
		Target:   advancedTimeTargetMs,
		Current:  metrics.AverageTime,
		Progress: progressToward(metrics.AverageTime, advancedTimeBaselineMs, advancedTimeTargetMs),
	}
}

// progressToward scales current between a baseline (0%) and a target
// (100%), clamped to [0, 100]. Lower is better for both inputs.
func progressToward(current, baseline, target float64) float64 {
	if baseline <= target {
		return 0
	}
	p := (baseline - current) / (baseline - target) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
