package domain

// The benchmark table and the average-user baseline are heuristic lookup
// constants, not computed percentiles. They are tuning data: adjust the
// values, not the lookup.

// SuccessThresholdMs is the per-game average under which a game counts
// toward the streak.
const SuccessThresholdMs = 1000.0

// rankBenchmark maps an average time (in seconds) to a percentile bucket.
type rankBenchmark struct {
	ThresholdSec float64
	Rank         int
}

// rankBenchmarks is ascending; the first threshold at or above the average
// wins. Averages beyond the table land at rankFloor.
var rankBenchmarks = []rankBenchmark{
	{0.4, 5},
	{0.6, 15},
	{0.8, 35},
	{1.0, 60},
	{1.2, 80},
	{1.5, 95},
}

const rankFloor = 99

// RankFor buckets an average round time (milliseconds) into a heuristic
// percentile rank.
func RankFor(averageTimeMs float64) int {
	sec := averageTimeMs / 1000
	for _, b := range rankBenchmarks {
		if sec <= b.ThresholdSec {
			return b.Rank
		}
	}
	return rankFloor
}

// AverageUserMetrics is the fixed comparison baseline shown next to a
// player's own numbers.
var AverageUserMetrics = PerformanceMetrics{
	AverageTime: 1100,
	Consistency: 250,
	Improvement: 0,
	Rank:        60,
	Streak:      0,
	BestTime:    850,
	GamesPlayed: 50,
}
