package domain

import "time"

// PerformanceMetrics is the derived statistical view of a single game in
// the context of the stored history. Times are milliseconds.
type PerformanceMetrics struct {
	AverageTime float64 `json:"average_time"`
	Consistency float64 `json:"consistency"` // population std deviation
	Improvement float64 `json:"improvement"` // % vs recent games, positive = faster
	Rank        int     `json:"rank"`        // 0-100 heuristic percentile bucket
	Streak      int     `json:"streak"`      // consecutive games under the success threshold
	BestTime    float64 `json:"best_time"`   // minimum per-game average for the mode
	GamesPlayed int     `json:"games_played"`
}

// HourlyPerformance aggregates all rounds recorded in one hour of day.
type HourlyPerformance struct {
	Hour            int     `json:"hour"`
	AverageTime     float64 `json:"average_time"`
	GamesPlayed     int     `json:"games_played"`
	AverageAccuracy float64 `json:"average_accuracy"`
}

// ModePerformance aggregates history for one game mode.
type ModePerformance struct {
	Mode        GameMode `json:"mode"`
	AverageTime float64  `json:"average_time"`
	GamesPlayed int      `json:"games_played"`
	BestTime    float64  `json:"best_time"`
	Improvement float64  `json:"improvement"` // recent 5 games vs the 5 before
}

// TrendPeriod selects the bucket size for trend analysis.
type TrendPeriod string

const (
	TrendDaily   TrendPeriod = "daily"
	TrendWeekly  TrendPeriod = "weekly"
	TrendMonthly TrendPeriod = "monthly"
)

// TrendDirection classifies the overall movement of a trend.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendPoint is one time bucket of the trend analysis.
type TrendPoint struct {
	BucketStart time.Time `json:"bucket_start"`
	AverageTime float64   `json:"average_time"`
	GamesPlayed int       `json:"games_played"`
	Improvement float64   `json:"improvement"` // first half vs second half of the bucket
}

// PerformanceTrend is the bucketed trend over the last 30 periods.
type PerformanceTrend struct {
	Period        TrendPeriod    `json:"period"`
	Points        []TrendPoint   `json:"points"`
	Direction     TrendDirection `json:"direction"`
	ChangePercent float64        `json:"change_percent"`
}

// Comparisons puts the current game next to reference points for the UI.
type Comparisons struct {
	PreviousGame *PerformanceMetrics `json:"previous_game,omitempty"`
	PersonalBest PerformanceMetrics  `json:"personal_best"`
	AverageUser  PerformanceMetrics  `json:"average_user"`
}

// AnalysisResult is the full output of one analysis pass.
type AnalysisResult struct {
	Metrics     PerformanceMetrics    `json:"metrics"`
	TimeBased   []HourlyPerformance   `json:"time_based"`
	ModeBased   []ModePerformance     `json:"mode_based"`
	Insights    UserInsights          `json:"insights"`
	Trend       PerformanceTrend      `json:"trend"`
	Messages    []PersonalizedMessage `json:"messages"`
	Comparisons Comparisons           `json:"comparisons"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// UserProfile is the slow-moving per-user record kept alongside history.
type UserProfile struct {
	CreatedAt           time.Time `json:"created_at"`
	TotalGames          int       `json:"total_games"`
	AchievedGoals       []string  `json:"achieved_goals"`
	FavoriteMode        GameMode  `json:"favorite_mode"`
	PreferredDifficulty string    `json:"preferred_difficulty"`
}
