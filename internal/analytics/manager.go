// Package analytics owns the persisted game history and orchestrates the
// analysis pipeline: analyzer metrics, insight generation, trend
// analysis, and message ranking, assembled into one AnalysisResult per
// read. It is the only package with storage side effects.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/reflexlabs/reflex/internal/analyzer"
	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/insight"
	"github.com/reflexlabs/reflex/internal/settings"
	"github.com/reflexlabs/reflex/internal/storage"
)

const (
	storageKey   = "analytics"
	exportSource = "reflex-analytics"

	// maxStoredGames caps the history on every persist, newest first.
	maxStoredGames = 1000

	// cacheTTL is the freshness window of the analysis cache.
	cacheTTL = 5 * time.Minute

	// favoriteModeWindow is the trailing window the favorite mode is
	// computed over.
	favoriteModeWindow = 30 * 24 * time.Hour
)

// SaveOptions carries the optional fields of a game submission.
type SaveOptions struct {
	// Accuracy overrides the computed hit percentage when set.
	Accuracy *float64

	// SessionDurationMs is the wall-clock length of the session.
	SessionDurationMs int64

	// UserAgent is used to classify the device the game was played on.
	UserAgent string
}

// Manager is the single writer of the analytics document. All methods
// are safe for concurrent use; mutations serialize on an internal lock
// and every write persists the whole document.
type Manager struct {
	store    storage.Store
	settings *settings.Store
	analyzer *analyzer.Analyzer
	insights *insight.Generator
	logger   *slog.Logger
	retrier  retry.Retry[struct{}]

	now func() time.Time

	mu   sync.Mutex
	data StoredAnalyticsData
}

// NewManager loads the analytics document from storage, creating and
// persisting a default one when none exists. A malformed or out-of-date
// document is re-validated field by field, and history older than the
// configured retention window is pruned before use.
func NewManager(store storage.Store, settingsStore *settings.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:    store,
		settings: settingsStore,
		analyzer: analyzer.New(),
		insights: insight.NewGenerator(settingsStore.Get),
		logger:   logger,
		now:      time.Now,
	}
	m.retrier = retry.New[struct{}](retry.Config{
		MaxAttempts:   2,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      100 * time.Millisecond,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable: func(err error) bool {
			return errors.Is(err, storage.ErrQuotaExceeded)
		},
	})

	var env dataEnvelope
	err := store.Load(storageKey, &env)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.data = m.defaultData()
		if saveErr := m.persistLocked(context.Background()); saveErr != nil {
			logger.Warn("persist default analytics data", "error", saveErr)
		}
	case err != nil:
		logger.Warn("load analytics data, starting fresh", "error", err)
		m.data = m.defaultData()
	default:
		if env.Version != DataVersion {
			logger.Info("migrating analytics document",
				"from", env.Version, "to", DataVersion)
		}
		// Never trust the raw persisted shape.
		m.data = sanitizeData(env.Data, m.now())
		m.pruneRetentionLocked()
	}

	return m
}

func (m *Manager) defaultData() StoredAnalyticsData {
	return StoredAnalyticsData{
		GameResults: []domain.GameResult{},
		UserProfile: domain.UserProfile{
			CreatedAt:           m.now(),
			FavoriteMode:        domain.ModeNormal,
			PreferredDifficulty: string(settings.DifficultyMedium),
		},
	}
}

// SaveGameResult records one completed game: it builds the immutable
// result record, appends it to history, updates the profile counters and
// the trailing-window favorite mode, invalidates the analysis cache, and
// persists. Persistence failures are logged, not returned; only an
// invalid game mode is an error.
func (m *Manager) SaveGameResult(ctx context.Context, results []float64, mode domain.GameMode, opts SaveOptions) (domain.GameResult, error) {
	if !mode.Valid() {
		return domain.GameResult{}, fmt.Errorf("save game result: %w: %q", domain.ErrInvalidGameMode, mode)
	}

	accuracy := domain.ComputedAccuracy(results)
	if opts.Accuracy != nil {
		accuracy = *opts.Accuracy
	}

	game := domain.NewGameResult(results, mode, accuracy, opts.SessionDurationMs, sniffDevice(opts.UserAgent))
	game.Timestamp = m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.GameResults = append(m.data.GameResults, game)
	m.data.UserProfile.TotalGames++
	m.data.UserProfile.FavoriteMode = m.favoriteModeLocked()
	m.data.Cache = AnalysisCache{}

	if err := m.persistLocked(ctx); err != nil {
		m.logger.Error("persist game result", "game_id", game.GameID, "error", err)
	}
	return game, nil
}

// favoriteModeLocked counts games per mode over the trailing window and
// returns the most played one. Ties go to the earlier mode in canonical
// order; an empty window keeps the current favorite.
func (m *Manager) favoriteModeLocked() domain.GameMode {
	cutoff := m.now().Add(-favoriteModeWindow)
	counts := make(map[domain.GameMode]int)
	for _, g := range m.data.GameResults {
		if g.Timestamp.After(cutoff) {
			counts[g.GameMode]++
		}
	}

	favorite := m.data.UserProfile.FavoriteMode
	best := 0
	for _, mode := range domain.Modes {
		if counts[mode] > best {
			favorite, best = mode, counts[mode]
		}
	}
	if favorite == "" {
		favorite = domain.ModeNormal
	}
	return favorite
}

// AnalyzeGameResult returns the full analysis for a game. A cached
// result younger than five minutes is returned as-is without looking at
// the passed game; the cache is keyed by time alone, so callers wanting
// a fresh read must save the new result first (saving invalidates it).
func (m *Manager) AnalyzeGameResult(ctx context.Context, game domain.GameResult) domain.AnalysisResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if cached := m.data.Cache.LastAnalysis; cached != nil && now.Sub(m.data.Cache.LastUpdated) < cacheTTL {
		return *cached
	}

	history := m.data.GameResults
	metrics := m.analyzer.CalculateMetrics(history, game)
	timeBased := m.analyzer.AnalyzeTimeBasedPerformance(history)
	modeBased := m.analyzer.AnalyzeModeBasedPerformance(history)
	insights := m.insights.GenerateUserInsights(metrics, timeBased, modeBased)

	result := domain.AnalysisResult{
		Metrics:     metrics,
		TimeBased:   timeBased,
		ModeBased:   modeBased,
		Insights:    insights,
		Trend:       m.analyzer.AnalyzePerformanceTrend(history, domain.TrendWeekly),
		Messages:    m.insights.GeneratePersonalizedMessages(game, metrics, insights),
		Comparisons: m.comparisonsLocked(game, metrics),
		GeneratedAt: now,
	}

	m.data.Cache = AnalysisCache{LastAnalysis: &result, LastUpdated: now}
	if err := m.persistLocked(ctx); err != nil {
		m.logger.Error("persist analysis cache", "error", err)
	}
	return result
}

// comparisonsLocked builds the UI reference points: the previous
// same-mode game's metrics, a synthetic personal-best record, and the
// fixed average-user baseline.
func (m *Manager) comparisonsLocked(game domain.GameResult, metrics domain.PerformanceMetrics) domain.Comparisons {
	cmp := domain.Comparisons{AverageUser: domain.AverageUserMetrics}

	if prev, ok := m.previousGameLocked(game); ok {
		prevMetrics := m.analyzer.CalculateMetrics(m.data.GameResults, prev)
		cmp.PreviousGame = &prevMetrics
	}

	best := game
	for _, g := range m.data.GameResults {
		if g.GameMode != game.GameMode || len(g.Results) == 0 {
			continue
		}
		if best.AverageTime() == 0 || g.AverageTime() < best.AverageTime() {
			best = g
		}
	}
	bestAvg := best.AverageTime()
	cmp.PersonalBest = domain.PerformanceMetrics{
		AverageTime: bestAvg,
		Consistency: domain.StdDev(best.Results),
		Rank:        domain.RankFor(bestAvg),
		BestTime:    bestAvg,
		GamesPlayed: metrics.GamesPlayed,
	}
	return cmp
}

// previousGameLocked finds the most recent same-mode game strictly older
// than the given one.
func (m *Manager) previousGameLocked(game domain.GameResult) (domain.GameResult, bool) {
	var prev domain.GameResult
	found := false
	for _, g := range m.data.GameResults {
		if g.GameMode != game.GameMode || g.GameID == game.GameID {
			continue
		}
		if !g.Timestamp.Before(game.Timestamp) {
			continue
		}
		if !found || g.Timestamp.After(prev.Timestamp) {
			prev, found = g, true
		}
	}
	return prev, found
}

// LatestGame returns the most recent game in history.
func (m *Manager) LatestGame() (domain.GameResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.data.GameResults) == 0 {
		return domain.GameResult{}, false
	}
	latest := m.data.GameResults[0]
	for _, g := range m.data.GameResults[1:] {
		if g.Timestamp.After(latest.Timestamp) {
			latest = g
		}
	}
	return latest, true
}

// GetStatistics returns the aggregate view over the whole history.
func (m *Manager) GetStatistics(ctx context.Context) Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.data.GameResults
	return Statistics{
		TotalGames:  m.data.UserProfile.TotalGames,
		TimeBased:   m.analyzer.AnalyzeTimeBasedPerformance(history),
		ModeBased:   m.analyzer.AnalyzeModeBasedPerformance(history),
		DailyTrend:  m.analyzer.AnalyzePerformanceTrend(history, domain.TrendDaily),
		WeeklyTrend: m.analyzer.AnalyzePerformanceTrend(history, domain.TrendWeekly),
		UserProfile: m.data.UserProfile,
	}
}

// ResetData discards the whole document and persists a fresh default.
func (m *Manager) ResetData(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = m.defaultData()
	if err := m.persistLocked(ctx); err != nil {
		m.logger.Error("persist reset analytics data", "error", err)
	}
}

// RecordGoalAchievement appends a goal ID to the profile's achieved
// list. Recording the same ID twice is a no-op.
func (m *Manager) RecordGoalAchievement(ctx context.Context, goalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.data.UserProfile.AchievedGoals {
		if id == goalID {
			return
		}
	}
	m.data.UserProfile.AchievedGoals = append(m.data.UserProfile.AchievedGoals, goalID)
	if err := m.persistLocked(ctx); err != nil {
		m.logger.Error("persist goal achievement", "goal_id", goalID, "error", err)
	}
}

// ExportData serializes the full document as a portable JSON file. The
// privacy settings gate it: export must be allowed, and device
// user-agents are stripped when anonymization is on.
func (m *Manager) ExportData(ctx context.Context) ([]byte, error) {
	cfg := m.settings.Get()
	if !cfg.Privacy.AllowExport {
		return nil, errors.New("export data: disabled by privacy settings")
	}

	m.mu.Lock()
	data := m.data
	data.GameResults = append([]domain.GameResult(nil), m.data.GameResults...)
	data.Cache = AnalysisCache{}
	m.mu.Unlock()

	if cfg.Privacy.AnonymizeDeviceInfo {
		for i := range data.GameResults {
			data.GameResults[i].DeviceInfo.UserAgent = ""
		}
	}

	doc := exportDocument{
		Version:    DataVersion,
		Source:     exportSource,
		ExportedAt: m.now(),
		Data:       &data,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export data: %w", err)
	}
	return payload, nil
}

// ImportData replaces the document with a previously exported one. This
// is the only manager operation that surfaces errors to the caller: a
// payload that is not valid JSON or lacks the export markers is
// rejected, and nothing in it is trusted verbatim.
func (m *Manager) ImportData(ctx context.Context, payload []byte) error {
	var doc exportDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("import data: %w: %v", domain.ErrInvalidImport, err)
	}
	if doc.Version == "" || doc.Source != exportSource || doc.Data == nil {
		return fmt.Errorf("import data: %w: missing version, source, or data", domain.ErrInvalidImport)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = sanitizeData(*doc.Data, m.now())
	m.data.Cache = AnalysisCache{}
	m.pruneRetentionLocked()
	if err := m.persistLocked(ctx); err != nil {
		m.logger.Error("persist imported analytics data", "error", err)
	}
	return nil
}

// GetSettings returns the current settings document.
func (m *Manager) GetSettings() settings.Settings {
	return m.settings.Get()
}

// UpdateSettings replaces the settings document after validation.
func (m *Manager) UpdateSettings(next settings.Settings) error {
	return m.settings.Update(next)
}

// UpdatePartialSettings merges a JSON patch into the current settings.
func (m *Manager) UpdatePartialSettings(patch []byte) error {
	return m.settings.UpdatePartial(patch)
}

// ShouldShowMessage reports whether a message of the given type may be
// shown right now, honoring the delivery timing, quiet hours, and the
// per-type toggle.
func (m *Manager) ShouldShowMessage(t domain.MessageType) bool {
	return settings.ShouldShowMessage(m.settings.Get(), t, m.now().Hour())
}

// persistLocked writes the whole document. The history is sorted newest
// first and capped before serializing. On a quota failure the retrier
// runs one cleanup pass, pruning by retention and re-applying the cap,
// then tries again; the second failure is returned for logging.
// Caller must hold m.mu.
func (m *Manager) persistLocked(ctx context.Context) error {
	m.capHistoryLocked()

	attempt := 0
	_, err := m.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
		attempt++
		if attempt > 1 {
			m.pruneRetentionLocked()
			m.capHistoryLocked()
		}
		env := dataEnvelope{
			Version:     DataVersion,
			Data:        m.data,
			LastUpdated: m.now().UnixMilli(),
		}
		return struct{}{}, m.store.Save(storageKey, env)
	})
	if err != nil {
		return fmt.Errorf("persist analytics data: %w", err)
	}
	return nil
}

// capHistoryLocked sorts the history newest first and drops everything
// past the cap.
func (m *Manager) capHistoryLocked() {
	sort.SliceStable(m.data.GameResults, func(i, j int) bool {
		return m.data.GameResults[i].Timestamp.After(m.data.GameResults[j].Timestamp)
	})
	if len(m.data.GameResults) > maxStoredGames {
		m.data.GameResults = m.data.GameResults[:maxStoredGames]
	}
}

// pruneRetentionLocked drops games older than the configured retention
// window.
func (m *Manager) pruneRetentionLocked() {
	days := m.settings.Get().Privacy.DataRetentionDays
	cutoff := m.now().AddDate(0, 0, -days)

	kept := m.data.GameResults[:0]
	for _, g := range m.data.GameResults {
		if g.Timestamp.After(cutoff) {
			kept = append(kept, g)
		}
	}
	m.data.GameResults = kept
}
