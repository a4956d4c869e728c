package settings

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/storage"
	"github.com/reflexlabs/reflex/internal/storage/local"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return NewStore(backend, nil)
}

func TestNewStore_DefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	if got := s.Get(); !reflect.DeepEqual(got, Defaults()) {
		t.Errorf("fresh store should hold defaults, got %+v", got)
	}
}

func TestNewStore_ReloadsPersistedDocument(t *testing.T) {
	dir := t.TempDir()
	backend, _ := local.NewStore(dir)

	first := NewStore(backend, nil)
	next := first.Get()
	next.Privacy.DataRetentionDays = 7
	if err := first.Update(next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	second := NewStore(backend, nil)
	if got := second.Get().Privacy.DataRetentionDays; got != 7 {
		t.Errorf("reloaded DataRetentionDays = %d, want 7", got)
	}
}

func TestNewStore_MigratesOutOfRangeFields(t *testing.T) {
	backend, _ := local.NewStore(t.TempDir())

	// Persist a stale-version envelope with broken values.
	bad := Defaults()
	bad.Privacy.DataRetentionDays = 5000
	bad.AnalysisDepth = "extreme"
	backend.Save("settings", Envelope{Version: "0.9.0", Settings: bad})

	s := NewStore(backend, nil)
	got := s.Get()

	if got.Privacy.DataRetentionDays != 365 {
		t.Errorf("DataRetentionDays = %d, want 365", got.Privacy.DataRetentionDays)
	}
	if got.AnalysisDepth != DepthStandard {
		t.Errorf("AnalysisDepth = %q, want standard", got.AnalysisDepth)
	}
}

func TestUpdatePartial_DeepMerge(t *testing.T) {
	s := newTestStore(t)

	patch := []byte(`{"message_settings": {"show_advice": false}, "privacy_settings": {"data_retention_days": 30}}`)
	if err := s.UpdatePartial(patch); err != nil {
		t.Fatalf("UpdatePartial() error = %v", err)
	}

	got := s.Get()
	if got.Messages.ShowAdvice {
		t.Error("patched leaf should change")
	}
	if got.Privacy.DataRetentionDays != 30 {
		t.Errorf("DataRetentionDays = %d, want 30", got.Privacy.DataRetentionDays)
	}
	// Untouched siblings keep their values.
	if !got.Messages.ShowAchievements {
		t.Error("unpatched sibling should be unchanged")
	}
	if got.Messages.MessageFrequency != FrequencyBalanced {
		t.Errorf("MessageFrequency = %q, want balanced", got.Messages.MessageFrequency)
	}
}

func TestUpdatePartial_ClampsPatchedValues(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpdatePartial([]byte(`{"privacy_settings": {"data_retention_days": 4000}}`)); err != nil {
		t.Fatalf("UpdatePartial() error = %v", err)
	}
	if got := s.Get().Privacy.DataRetentionDays; got != 365 {
		t.Errorf("DataRetentionDays = %d, want clamped 365", got)
	}
}

func TestSubscribe_NotifiesAndUnsubscribes(t *testing.T) {
	s := newTestStore(t)

	var seen []Settings
	unsubscribe := s.Subscribe(func(updated Settings) {
		seen = append(seen, updated)
	})

	next := s.Get()
	next.AutoAnalysis = false
	s.Update(next)

	if len(seen) != 1 {
		t.Fatalf("subscriber calls = %d, want 1", len(seen))
	}
	if seen[0].AutoAnalysis {
		t.Error("subscriber should receive the updated document")
	}

	unsubscribe()
	s.Reset()
	if len(seen) != 1 {
		t.Errorf("unsubscribed listener was called again (%d calls)", len(seen))
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	next := s.Get()
	next.Messages.MotivationStyle = StyleChallenging
	next.Privacy.DataRetentionDays = 14
	s.Update(next)
	original := s.Get()

	exported, err := s.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	// Import into a fresh store.
	other := newTestStore(t)
	if err := other.Import(exported); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if !reflect.DeepEqual(other.Get(), original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", other.Get(), original)
	}
}

func TestImport_RejectsMalformedDocuments(t *testing.T) {
	s := newTestStore(t)

	cases := map[string][]byte{
		"not json":     []byte("{nope"),
		"wrong source": []byte(`{"version":"1.0.0","source":"other-app","settings":{}}`),
		"no payload":   []byte(`{"version":"1.0.0","source":"reflex-settings"}`),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if err := s.Import(data); !errors.Is(err, domain.ErrInvalidImport) {
				t.Errorf("Import() error = %v, want ErrInvalidImport", err)
			}
		})
	}
}

func TestApplyPreset(t *testing.T) {
	s := newTestStore(t)

	if err := s.ApplyPreset(PresetMinimal); err != nil {
		t.Fatalf("ApplyPreset() error = %v", err)
	}
	got := s.Get()
	if got.Messages.MessageFrequency != FrequencyMinimal {
		t.Errorf("MessageFrequency = %q, want minimal", got.Messages.MessageFrequency)
	}

	if err := s.ApplyPreset("turbo"); err == nil {
		t.Error("unknown preset should be an error")
	}
}

func TestStore_SurvivesFailingBackend(t *testing.T) {
	s := NewStore(failingStore{}, nil)

	// Updates must not crash or error out to the caller.
	next := s.Get()
	next.AutoAnalysis = false
	if err := s.Update(next); err != nil {
		t.Errorf("Update() error = %v, want nil despite backend failure", err)
	}
	if s.Get().AutoAnalysis {
		t.Error("in-memory document should still update")
	}
}

// failingStore always errors, standing in for an unavailable backend.
type failingStore struct{}

func (failingStore) Save(string, any) error { return errors.New("backend down") }
func (failingStore) Load(string, any) error { return errors.New("backend down") }
func (failingStore) Delete(string) error    { return errors.New("backend down") }
func (failingStore) Exists(string) bool     { return false }

var _ storage.Store = failingStore{}
