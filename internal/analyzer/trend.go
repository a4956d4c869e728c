package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/reflexlabs/reflex/internal/domain"
)

// trendBuckets is how many periods back the trend analysis looks.
const trendBuckets = 30

// trendChangeThreshold separates improving/declining from stable, in
// percent of mean bucket improvement.
const trendChangeThreshold = 5.0

func periodLength(period domain.TrendPeriod) time.Duration {
	switch period {
	case domain.TrendWeekly:
		return 7 * 24 * time.Hour
	case domain.TrendMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// AnalyzePerformanceTrend buckets the last 30 periods of history and
// classifies the overall movement. Bucket improvement compares the first
// half of a bucket's games against the second half in play order, so a
// positive value means the later games were faster.
func (a *Analyzer) AnalyzePerformanceTrend(history []domain.GameResult, period domain.TrendPeriod) domain.PerformanceTrend {
	now := a.now()
	length := periodLength(period)

	buckets := make([][]domain.GameResult, trendBuckets)
	for _, g := range history {
		age := now.Sub(g.Timestamp)
		if age < 0 {
			continue
		}
		idx := int(age / length)
		if idx >= trendBuckets {
			continue
		}
		buckets[idx] = append(buckets[idx], g)
	}

	trend := domain.PerformanceTrend{Period: period, Direction: domain.TrendStable}

	var improvements []float64
	for idx := trendBuckets - 1; idx >= 0; idx-- {
		games := buckets[idx]
		if len(games) == 0 {
			continue
		}

		imp := bucketImprovement(games)
		improvements = append(improvements, imp)
		trend.Points = append(trend.Points, domain.TrendPoint{
			BucketStart: now.Add(-time.Duration(idx+1) * length),
			AverageTime: domain.Mean(averagesOf(games)),
			GamesPlayed: len(games),
			Improvement: imp,
		})
	}

	if len(improvements) == 0 {
		return trend
	}

	mean := domain.Mean(improvements)
	switch {
	case mean > trendChangeThreshold:
		trend.Direction = domain.TrendImproving
	case mean < -trendChangeThreshold:
		trend.Direction = domain.TrendDeclining
	}
	trend.ChangePercent = math.Round(math.Abs(mean))

	return trend
}

// bucketImprovement splits a bucket's games chronologically and compares
// the halves; 0 when there are not two games to compare.
func bucketImprovement(games []domain.GameResult) float64 {
	if len(games) < 2 {
		return 0
	}

	ordered := make([]domain.GameResult, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	half := len(ordered) / 2
	firstAvg := domain.Mean(averagesOf(ordered[:half]))
	secondAvg := domain.Mean(averagesOf(ordered[half:]))
	if firstAvg == 0 {
		return 0
	}
	return (firstAvg - secondAvg) / firstAvg * 100
}
