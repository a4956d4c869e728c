// Package analyzer computes statistical performance metrics over the
// stored game history. All computation is pure and bounded by the history
// cap; nothing here touches storage.
package analyzer

import (
	"sort"
	"time"

	"github.com/reflexlabs/reflex/internal/domain"
)

// recentGamesWindow bounds the improvement baseline to the games just
// before the one under analysis.
const recentGamesWindow = 4

// modeImprovementWindow is the block size for mode-level improvement
// (most recent block vs the block before it).
const modeImprovementWindow = 5

// Analyzer performs stateless analysis passes over a game history.
type Analyzer struct {
	now func() time.Time
}

// New creates an analyzer.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// CalculateMetrics derives the statistical view of one game against the
// stored history. The game itself may or may not already be part of
// history; it is counted exactly once either way.
func (a *Analyzer) CalculateMetrics(history []domain.GameResult, game domain.GameResult) domain.PerformanceMetrics {
	avg := game.AverageTime()

	modeGames := modeHistory(history, game.GameMode)
	if !containsGame(modeGames, game.GameID) {
		modeGames = append(modeGames, game)
		sortNewestFirst(modeGames)
	}

	return domain.PerformanceMetrics{
		AverageTime: avg,
		Consistency: domain.StdDev(game.Results),
		Improvement: a.improvement(modeGames, game),
		Rank:        domain.RankFor(avg),
		Streak:      streak(modeGames),
		BestTime:    bestTime(modeGames),
		GamesPlayed: len(modeGames),
	}
}

// improvement compares the game's average against the mean of the up-to-4
// games played just before it in the same mode. Positive means the current
// game is faster. Fewer than two prior games yield 0.
func (a *Analyzer) improvement(modeGames []domain.GameResult, game domain.GameResult) float64 {
	var prior []float64
	for _, g := range modeGames {
		if g.GameID == game.GameID {
			continue
		}
		if g.Timestamp.After(game.Timestamp) {
			continue
		}
		prior = append(prior, g.AverageTime())
		if len(prior) == recentGamesWindow {
			break
		}
	}

	if len(prior) < 2 {
		return 0
	}

	priorAvg := domain.Mean(prior)
	if priorAvg == 0 {
		return 0
	}
	return (priorAvg - game.AverageTime()) / priorAvg * 100
}

// streak counts consecutive games, newest first, whose average is at or
// below the success threshold. The walk stops at the first failure.
func streak(modeGames []domain.GameResult) int {
	count := 0
	for _, g := range modeGames {
		if g.AverageTime() > domain.SuccessThresholdMs {
			break
		}
		count++
	}
	return count
}

// bestTime is the minimum per-game average across the mode history.
func bestTime(modeGames []domain.GameResult) float64 {
	best := 0.0
	for i, g := range modeGames {
		avg := g.AverageTime()
		if i == 0 || avg < best {
			best = avg
		}
	}
	return best
}

// AnalyzeTimeBasedPerformance groups every recorded round by the hour of
// day its game was played in. Only hours with at least one game appear.
func (a *Analyzer) AnalyzeTimeBasedPerformance(history []domain.GameResult) []domain.HourlyPerformance {
	type bucket struct {
		times    []float64
		games    int
		accuracy float64
	}
	var hours [24]bucket

	for _, g := range history {
		h := g.Timestamp.Hour()
		hours[h].times = append(hours[h].times, g.Results...)
		hours[h].games++
		hours[h].accuracy += g.Accuracy
	}

	var out []domain.HourlyPerformance
	for h, b := range hours {
		if b.games == 0 {
			continue
		}
		out = append(out, domain.HourlyPerformance{
			Hour:            h,
			AverageTime:     domain.Mean(b.times),
			GamesPlayed:     b.games,
			AverageAccuracy: b.accuracy / float64(b.games),
		})
	}
	return out
}

// AnalyzeModeBasedPerformance aggregates history per game mode. Every mode
// appears, with zero values when unplayed.
func (a *Analyzer) AnalyzeModeBasedPerformance(history []domain.GameResult) []domain.ModePerformance {
	out := make([]domain.ModePerformance, 0, len(domain.Modes))

	for _, mode := range domain.Modes {
		games := modeHistory(history, mode)

		var rounds []float64
		for _, g := range games {
			rounds = append(rounds, g.Results...)
		}

		out = append(out, domain.ModePerformance{
			Mode:        mode,
			AverageTime: domain.Mean(rounds),
			GamesPlayed: len(games),
			BestTime:    bestTime(games),
			Improvement: modeImprovement(games),
		})
	}
	return out
}

// modeImprovement compares the most recent 5 games against the 5 before
// them; 0 unless both full blocks exist.
func modeImprovement(games []domain.GameResult) float64 {
	if len(games) < 2*modeImprovementWindow {
		return 0
	}

	recent := averagesOf(games[:modeImprovementWindow])
	previous := averagesOf(games[modeImprovementWindow : 2*modeImprovementWindow])

	prevAvg := domain.Mean(previous)
	if prevAvg == 0 {
		return 0
	}
	return (prevAvg - domain.Mean(recent)) / prevAvg * 100
}

func averagesOf(games []domain.GameResult) []float64 {
	avgs := make([]float64, 0, len(games))
	for _, g := range games {
		avgs = append(avgs, g.AverageTime())
	}
	return avgs
}

// modeHistory filters history to one mode, newest first.
func modeHistory(history []domain.GameResult, mode domain.GameMode) []domain.GameResult {
	var games []domain.GameResult
	for _, g := range history {
		if g.GameMode == mode {
			games = append(games, g)
		}
	}
	sortNewestFirst(games)
	return games
}

func sortNewestFirst(games []domain.GameResult) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Timestamp.After(games[j].Timestamp)
	})
}

func containsGame(games []domain.GameResult, id string) bool {
	for _, g := range games {
		if g.GameID == id {
			return true
		}
	}
	return false
}
