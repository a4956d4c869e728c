package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/settings"
	"github.com/reflexlabs/reflex/internal/storage"
	"github.com/reflexlabs/reflex/internal/storage/local"
)

// memoryStore is an in-memory storage.Store that can be told to fail
// the next Save calls with a quota error.
type memoryStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	failures int
	saves    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string][]byte)}
}

func (s *memoryStore) Save(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failures > 0 {
		s.failures--
		return fmt.Errorf("save %q: %w", key, storage.ErrQuotaExceeded)
	}
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.docs[key] = body
	return nil
}

func (s *memoryStore) Load(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.docs[key]
	if !ok {
		return storage.ErrNotFound
	}
	return json.Unmarshal(body, v)
}

func (s *memoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.docs, key)
	return nil
}

func (s *memoryStore) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[key]
	return ok
}

func newTestManager(t *testing.T, store storage.Store) *Manager {
	t.Helper()
	if store == nil {
		fileStore, err := local.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("creating file store: %v", err)
		}
		store = fileStore
	}
	m := NewManager(store, settings.NewStore(store, nil), nil)
	m.now = func() time.Time {
		return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return m
}

func gameAgedDays(mode domain.GameMode, avgMs float64, daysAgo int, base time.Time) domain.GameResult {
	g := domain.NewGameResult([]float64{avgMs}, mode, 100, 0, domain.DeviceInfo{Type: domain.DeviceDesktop})
	g.Timestamp = base.AddDate(0, 0, -daysAgo)
	return g
}

func TestNewManagerCreatesDefaultDocument(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)

	stats := m.GetStatistics(context.Background())
	if stats.TotalGames != 0 {
		t.Errorf("total games = %d, want 0", stats.TotalGames)
	}
	if stats.UserProfile.FavoriteMode != domain.ModeNormal {
		t.Errorf("favorite mode = %s, want normal", stats.UserProfile.FavoriteMode)
	}
	if !store.Exists(storageKey) {
		t.Error("default document was not persisted")
	}
}

func TestSaveGameResultAppendsAndCounts(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	game, err := m.SaveGameResult(ctx, []float64{300, 400, 500}, domain.ModeRanked, SaveOptions{
		UserAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		SessionDurationMs: 45000,
	})
	if err != nil {
		t.Fatalf("SaveGameResult: %v", err)
	}
	if game.GameID == "" {
		t.Error("expected a generated game ID")
	}
	if game.DeviceInfo.Type != domain.DeviceMobile {
		t.Errorf("device type = %s, want mobile", game.DeviceInfo.Type)
	}
	if game.Accuracy != 100 {
		t.Errorf("computed accuracy = %v, want 100", game.Accuracy)
	}

	stats := m.GetStatistics(ctx)
	if stats.TotalGames != 1 {
		t.Errorf("total games = %d, want 1", stats.TotalGames)
	}
	if stats.UserProfile.FavoriteMode != domain.ModeRanked {
		t.Errorf("favorite mode = %s, want ranked", stats.UserProfile.FavoriteMode)
	}
}

func TestSaveGameResultExplicitAccuracy(t *testing.T) {
	m := newTestManager(t, nil)

	accuracy := 85.0
	game, err := m.SaveGameResult(context.Background(), []float64{300, 3200}, domain.ModeNormal, SaveOptions{
		Accuracy: &accuracy,
	})
	if err != nil {
		t.Fatalf("SaveGameResult: %v", err)
	}
	if game.Accuracy != 85 {
		t.Errorf("accuracy = %v, want explicit 85", game.Accuracy)
	}
}

func TestSaveGameResultRejectsInvalidMode(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.SaveGameResult(context.Background(), []float64{300}, "turbo", SaveOptions{})
	if !errors.Is(err, domain.ErrInvalidGameMode) {
		t.Errorf("error = %v, want ErrInvalidGameMode", err)
	}
}

func TestFavoriteModeTiesBreakByCanonicalOrder(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	// One sequence game, then one normal game: a tie that normal wins
	// because it comes first in canonical order.
	if _, err := m.SaveGameResult(ctx, []float64{400}, domain.ModeSequence, SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SaveGameResult(ctx, []float64{400}, domain.ModeNormal, SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	stats := m.GetStatistics(ctx)
	if stats.UserProfile.FavoriteMode != domain.ModeNormal {
		t.Errorf("favorite mode = %s, want normal on a tie", stats.UserProfile.FavoriteMode)
	}
}

func TestHistoryCappedOnPersist(t *testing.T) {
	m := newTestManager(t, nil)
	base := m.now()

	m.mu.Lock()
	for i := 0; i < maxStoredGames+1; i++ {
		g := domain.NewGameResult([]float64{400}, domain.ModeNormal, 100, 0, domain.DeviceInfo{})
		g.Timestamp = base.Add(-time.Duration(i) * time.Minute)
		m.data.GameResults = append(m.data.GameResults, g)
	}
	m.mu.Unlock()

	if _, err := m.SaveGameResult(context.Background(), []float64{300}, domain.ModeNormal, SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data.GameResults) != maxStoredGames {
		t.Fatalf("history length = %d, want capped at %d", len(m.data.GameResults), maxStoredGames)
	}
	// Newest first, and the just-saved game survives the cut.
	if m.data.GameResults[0].Results[0] != 300 {
		t.Error("newest game should lead the capped history")
	}
	for i := 1; i < len(m.data.GameResults); i++ {
		if m.data.GameResults[i].Timestamp.After(m.data.GameResults[i-1].Timestamp) {
			t.Fatal("capped history is not sorted newest first")
		}
	}
}

func TestQuotaFailureTriggersRetentionCleanupAndRetry(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)
	base := m.now()

	// Shrink the retention window so the cleanup pass has bite.
	if err := m.UpdatePartialSettings([]byte(`{"privacy_settings": {"data_retention_days": 7}}`)); err != nil {
		t.Fatal(err)
	}

	m.mu.Lock()
	m.data.GameResults = []domain.GameResult{
		gameAgedDays(domain.ModeNormal, 400, 1, base),
		gameAgedDays(domain.ModeNormal, 500, 30, base),
		gameAgedDays(domain.ModeNormal, 600, 60, base),
	}
	m.mu.Unlock()

	store.mu.Lock()
	store.failures = 1
	store.saves = 0
	store.mu.Unlock()

	if _, err := m.SaveGameResult(context.Background(), []float64{300}, domain.ModeNormal, SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data.GameResults) != 2 {
		t.Fatalf("history length after cleanup = %d, want 2 recent games", len(m.data.GameResults))
	}
	for _, g := range m.data.GameResults {
		if g.Timestamp.Before(base.AddDate(0, 0, -7)) {
			t.Errorf("game at %v survived a 7-day retention cleanup", g.Timestamp)
		}
	}
	if store.saves != 2 {
		t.Errorf("save attempts = %d, want a failure and one retry", store.saves)
	}
}

func TestSecondQuotaFailureIsSwallowed(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)

	store.mu.Lock()
	store.failures = 2
	store.mu.Unlock()

	// Both attempts fail; the save still returns without error.
	if _, err := m.SaveGameResult(context.Background(), []float64{300}, domain.ModeNormal, SaveOptions{}); err != nil {
		t.Fatalf("SaveGameResult surfaced a persistence error: %v", err)
	}

	stats := m.GetStatistics(context.Background())
	if stats.TotalGames != 1 {
		t.Errorf("in-memory state lost after persistence failure: total games = %d", stats.TotalGames)
	}
}

func TestAnalyzeGameResultUsesCacheWithinTTL(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	game, err := m.SaveGameResult(ctx, []float64{400, 450, 500}, domain.ModeNormal, SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	first := m.AnalyzeGameResult(ctx, game)
	second := m.AnalyzeGameResult(ctx, game)
	if !reflect.DeepEqual(first, second) {
		t.Error("second analysis within the TTL should be the cached result")
	}
}

func TestSaveInvalidatesAnalysisCache(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	game, err := m.SaveGameResult(ctx, []float64{400, 450, 500}, domain.ModeNormal, SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	first := m.AnalyzeGameResult(ctx, game)

	next, err := m.SaveGameResult(ctx, []float64{300, 320, 340}, domain.ModeNormal, SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second := m.AnalyzeGameResult(ctx, next)

	if first.Metrics.GamesPlayed == second.Metrics.GamesPlayed {
		t.Error("analysis after a save should reflect the new game")
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	game, err := m.SaveGameResult(ctx, []float64{400}, domain.ModeNormal, SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	base := m.now()
	first := m.AnalyzeGameResult(ctx, game)

	m.now = func() time.Time { return base.Add(cacheTTL + time.Second) }
	second := m.AnalyzeGameResult(ctx, game)

	if first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Error("analysis after the TTL should be recomputed")
	}
}

func TestComparisonsIncludePreviousGameAndBaseline(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()
	base := m.now()

	if _, err := m.SaveGameResult(ctx, []float64{500, 520}, domain.ModeNormal, SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	m.now = func() time.Time { return base.Add(time.Minute) }
	game, err := m.SaveGameResult(ctx, []float64{400, 420}, domain.ModeNormal, SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	result := m.AnalyzeGameResult(ctx, game)
	if result.Comparisons.PreviousGame == nil {
		t.Fatal("expected previous-game comparison")
	}
	if got := result.Comparisons.PreviousGame.AverageTime; got != 510 {
		t.Errorf("previous game average = %v, want 510", got)
	}
	if got := result.Comparisons.PersonalBest.AverageTime; got != 410 {
		t.Errorf("personal best average = %v, want 410", got)
	}
	if !reflect.DeepEqual(result.Comparisons.AverageUser, domain.AverageUserMetrics) {
		t.Error("average-user baseline should be the fixed benchmark record")
	}
}

func TestResetDataReturnsToDefaults(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	if _, err := m.SaveGameResult(ctx, []float64{400}, domain.ModeRanked, SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	m.ResetData(ctx)

	stats := m.GetStatistics(ctx)
	if stats.TotalGames != 0 {
		t.Errorf("total games after reset = %d, want 0", stats.TotalGames)
	}
	if stats.UserProfile.FavoriteMode != domain.ModeNormal {
		t.Errorf("favorite mode after reset = %s, want normal", stats.UserProfile.FavoriteMode)
	}
}

func TestRecordGoalAchievementIdempotent(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	m.RecordGoalAchievement(ctx, "first-sub-500")
	m.RecordGoalAchievement(ctx, "first-sub-500")
	m.RecordGoalAchievement(ctx, "ten-game-streak")

	stats := m.GetStatistics(ctx)
	want := []string{"first-sub-500", "ten-game-streak"}
	if !reflect.DeepEqual(stats.UserProfile.AchievedGoals, want) {
		t.Errorf("achieved goals = %v, want %v", stats.UserProfile.AchievedGoals, want)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	if _, err := m.SaveGameResult(ctx, []float64{400, 450}, domain.ModeColor, SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	payload, err := m.ExportData(ctx)
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}

	other := newTestManager(t, nil)
	if err := other.ImportData(ctx, payload); err != nil {
		t.Fatalf("ImportData: %v", err)
	}

	stats := other.GetStatistics(ctx)
	if stats.TotalGames != 1 {
		t.Errorf("imported total games = %d, want 1", stats.TotalGames)
	}
	if len(stats.ModeBased) == 0 {
		t.Fatal("imported history produced no mode breakdown")
	}
}

func TestExportHonorsPrivacySettings(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	if _, err := m.SaveGameResult(ctx, []float64{400}, domain.ModeNormal, SaveOptions{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64)",
	}); err != nil {
		t.Fatal(err)
	}

	if err := m.UpdatePartialSettings([]byte(`{"privacy_settings": {"anonymize_device_info": true}}`)); err != nil {
		t.Fatal(err)
	}
	payload, err := m.ExportData(ctx)
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	var doc exportDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatal(err)
	}
	for _, g := range doc.Data.GameResults {
		if g.DeviceInfo.UserAgent != "" {
			t.Error("user agent should be stripped when anonymization is on")
		}
	}

	if err := m.UpdatePartialSettings([]byte(`{"privacy_settings": {"allow_export": false}}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ExportData(ctx); err == nil {
		t.Error("export should fail when disabled by privacy settings")
	}
}

func TestImportRejectsMalformedPayloads(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{nope"},
		{"wrong source", `{"version": "1.0.0", "source": "elsewhere", "data": {}}`},
		{"missing data", `{"version": "1.0.0", "source": "reflex-analytics"}`},
		{"missing version", `{"source": "reflex-analytics", "data": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ImportData(ctx, []byte(tt.payload))
			if !errors.Is(err, domain.ErrInvalidImport) {
				t.Errorf("error = %v, want ErrInvalidImport", err)
			}
		})
	}
}

func TestManagerReloadsPersistedHistory(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)
	m.now = time.Now

	if _, err := m.SaveGameResult(context.Background(), []float64{400}, domain.ModeTarget, SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	reloaded := newTestManager(t, store)
	stats := reloaded.GetStatistics(context.Background())
	if stats.TotalGames != 1 {
		t.Errorf("reloaded total games = %d, want 1", stats.TotalGames)
	}
}

func TestLoadPrunesExpiredHistory(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)
	// Pruning at load uses the wall clock, so age the games against it.
	base := time.Now()

	if err := m.UpdatePartialSettings([]byte(`{"privacy_settings": {"data_retention_days": 7}}`)); err != nil {
		t.Fatal(err)
	}
	m.mu.Lock()
	m.data.GameResults = []domain.GameResult{
		gameAgedDays(domain.ModeNormal, 400, 1, base),
		gameAgedDays(domain.ModeNormal, 500, 90, base),
	}
	err := m.persistLocked(context.Background())
	m.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	reloaded := newTestManager(t, store)
	reloaded.mu.Lock()
	defer reloaded.mu.Unlock()
	if len(reloaded.data.GameResults) != 1 {
		t.Fatalf("reloaded history length = %d, want expired game pruned", len(reloaded.data.GameResults))
	}
}

func TestShouldShowMessageDelegatesToSettings(t *testing.T) {
	m := newTestManager(t, nil)

	if !m.ShouldShowMessage(domain.MessageAdvice) {
		t.Error("advice should show under default settings")
	}
	if err := m.UpdatePartialSettings([]byte(`{"message_settings": {"show_advice": false}}`)); err != nil {
		t.Fatal(err)
	}
	if m.ShouldShowMessage(domain.MessageAdvice) {
		t.Error("advice should be suppressed after disabling the toggle")
	}
}
