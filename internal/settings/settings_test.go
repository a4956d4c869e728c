package settings

import (
	"testing"

	"github.com/reflexlabs/reflex/internal/domain"
)

func TestNormalize_ClampsRetentionDays(t *testing.T) {
	tests := []struct {
		name string
		days int
		want int
	}{
		{"below range", -5, 1},
		{"unset falls back to default", 0, 90},
		{"in range", 30, 30},
		{"above range", 9999, 365},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			s.Privacy.DataRetentionDays = tt.days
			got := Normalize(s).Privacy.DataRetentionDays
			if got != tt.want {
				t.Errorf("DataRetentionDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalize_DefaultsInvalidEnums(t *testing.T) {
	s := Defaults()
	s.AnalysisDepth = "ultra"
	s.Messages.MotivationStyle = "drill-sergeant"
	s.Display.Theme = "neon"

	got := Normalize(s)

	if got.AnalysisDepth != DepthStandard {
		t.Errorf("AnalysisDepth = %q, want standard", got.AnalysisDepth)
	}
	if got.Messages.MotivationStyle != StyleSupportive {
		t.Errorf("MotivationStyle = %q, want supportive", got.Messages.MotivationStyle)
	}
	if got.Display.Theme != ThemeSystem {
		t.Errorf("Theme = %q, want system", got.Display.Theme)
	}
}

func TestNormalize_ClampsQuietHours(t *testing.T) {
	s := Defaults()
	s.Notifications.QuietHoursStart = -3
	s.Notifications.QuietHoursEnd = 99

	got := Normalize(s).Notifications

	if got.QuietHoursStart != 0 {
		t.Errorf("QuietHoursStart = %d, want 0", got.QuietHoursStart)
	}
	if got.QuietHoursEnd != 23 {
		t.Errorf("QuietHoursEnd = %d, want 23", got.QuietHoursEnd)
	}
}

func TestInQuietHours_Wraparound(t *testing.T) {
	n := NotificationSettings{
		QuietHoursEnabled: true,
		QuietHoursStart:   22,
		QuietHoursEnd:     8,
	}

	inside := []int{22, 23, 0, 3, 7}
	outside := []int{8, 12, 21}

	for _, h := range inside {
		if !n.InQuietHours(h) {
			t.Errorf("hour %d should be inside the [22,8) window", h)
		}
	}
	for _, h := range outside {
		if n.InQuietHours(h) {
			t.Errorf("hour %d should be outside the [22,8) window", h)
		}
	}
}

func TestInQuietHours_PlainWindow(t *testing.T) {
	n := NotificationSettings{
		QuietHoursEnabled: true,
		QuietHoursStart:   9,
		QuietHoursEnd:     17,
	}

	if !n.InQuietHours(12) {
		t.Error("hour 12 should be inside [9,17)")
	}
	if n.InQuietHours(17) {
		t.Error("the end hour is exclusive")
	}
	if n.InQuietHours(8) {
		t.Error("hour 8 should be outside [9,17)")
	}
}

func TestInQuietHours_Disabled(t *testing.T) {
	n := NotificationSettings{QuietHoursStart: 22, QuietHoursEnd: 8}

	if n.InQuietHours(23) {
		t.Error("disabled quiet hours should never match")
	}
}

func TestShouldShowMessage(t *testing.T) {
	s := Defaults()
	s.Notifications.QuietHoursEnabled = true
	s.Notifications.QuietHoursStart = 22
	s.Notifications.QuietHoursEnd = 8

	if ShouldShowMessage(s, domain.MessageAdvice, 23) {
		t.Error("advice should be suppressed inside quiet hours")
	}
	if !ShouldShowMessage(s, domain.MessageAdvice, 12) {
		t.Error("advice should show outside quiet hours")
	}

	s.Messages.ShowAdvice = false
	if ShouldShowMessage(s, domain.MessageAdvice, 12) {
		t.Error("advice toggle off should suppress advice")
	}
	if !ShouldShowMessage(s, domain.MessageGoal, 12) {
		t.Error("other message types are unaffected by the advice toggle")
	}

	s.Notifications.NotificationTiming = TimingManual
	if ShouldShowMessage(s, domain.MessageGoal, 12) {
		t.Error("manual timing suppresses everything")
	}
}

func TestPresetFor(t *testing.T) {
	for _, name := range PresetNames {
		s, err := presetFor(name)
		if err != nil {
			t.Fatalf("presetFor(%q) error = %v", name, err)
		}
		// Every preset must already be a valid document.
		if Normalize(s) != s {
			t.Errorf("preset %q is not normalization-stable", name)
		}
	}

	if _, err := presetFor("turbo"); err == nil {
		t.Error("unknown preset should be an error")
	}
}
