package analytics

import (
	"time"

	"github.com/reflexlabs/reflex/internal/domain"
)

// DataVersion is the schema version of the persisted analytics document.
// A stored document with a different version is re-validated field by
// field at load, never rejected.
const DataVersion = "1.0.0"

// AnalysisCache holds the last computed analysis and when it was made.
// The cache is keyed by time alone: any read within the TTL returns the
// stored result regardless of which game the caller passed.
type AnalysisCache struct {
	LastAnalysis *domain.AnalysisResult `json:"last_analysis,omitempty"`
	LastUpdated  time.Time              `json:"last_updated"`
}

// StoredAnalyticsData is the full persisted document owned by the
// manager: the capped game history, the slow-moving user profile, and
// the analysis cache.
type StoredAnalyticsData struct {
	GameResults []domain.GameResult `json:"game_results"`
	UserProfile domain.UserProfile  `json:"user_profile"`
	Cache       AnalysisCache       `json:"cache"`
}

// dataEnvelope wraps the document for storage.
type dataEnvelope struct {
	Version     string              `json:"version"`
	Data        StoredAnalyticsData `json:"data"`
	LastUpdated int64               `json:"last_updated"`
}

// exportDocument is the externally portable shape produced by ExportData
// and consumed by ImportData.
type exportDocument struct {
	Version    string               `json:"version"`
	Source     string               `json:"source"`
	ExportedAt time.Time            `json:"exported_at"`
	Data       *StoredAnalyticsData `json:"data"`
}

// Statistics is the aggregate view returned to the UI layer.
type Statistics struct {
	TotalGames  int                        `json:"total_games"`
	TimeBased   []domain.HourlyPerformance `json:"time_based"`
	ModeBased   []domain.ModePerformance   `json:"mode_based"`
	DailyTrend  domain.PerformanceTrend    `json:"daily_trend"`
	WeeklyTrend domain.PerformanceTrend    `json:"weekly_trend"`
	UserProfile domain.UserProfile         `json:"user_profile"`
}

// sanitizeData re-validates a document loaded from storage or an import.
// Games with an unknown mode or no rounds are dropped, the profile is
// given a creation time if it lacks one, and the total-games counter is
// kept at least as large as the surviving history.
func sanitizeData(data StoredAnalyticsData, now time.Time) StoredAnalyticsData {
	games := data.GameResults[:0:0]
	for _, g := range data.GameResults {
		if !g.GameMode.Valid() || len(g.Results) == 0 || g.GameID == "" {
			continue
		}
		games = append(games, g)
	}
	data.GameResults = games

	if data.UserProfile.CreatedAt.IsZero() {
		data.UserProfile.CreatedAt = now
	}
	if data.UserProfile.TotalGames < len(games) {
		data.UserProfile.TotalGames = len(games)
	}
	if data.UserProfile.FavoriteMode != "" && !data.UserProfile.FavoriteMode.Valid() {
		data.UserProfile.FavoriteMode = domain.ModeNormal
	}
	if data.Cache.LastAnalysis != nil && data.Cache.LastUpdated.IsZero() {
		data.Cache = AnalysisCache{}
	}
	return data
}
