// Package settings owns the user-controlled analytics configuration: a
// versioned document with defaults for every field, validation that clamps
// rather than rejects, and change notification for consumers.
package settings

import (
	"github.com/reflexlabs/reflex/internal/domain"
)

// SchemaVersion is the current settings document version. A stored
// document with any other version is re-validated field by field on load.
const SchemaVersion = "1.0.0"

// AnalysisDepth controls how much of the pipeline runs per analysis.
type AnalysisDepth string

const (
	DepthBasic    AnalysisDepth = "basic"
	DepthStandard AnalysisDepth = "standard"
	DepthDetailed AnalysisDepth = "detailed"
)

// MessageFrequency controls how many messages an analysis may surface.
type MessageFrequency string

const (
	FrequencyMinimal  MessageFrequency = "minimal"
	FrequencyBalanced MessageFrequency = "balanced"
	FrequencyDetailed MessageFrequency = "detailed"
)

// MotivationStyle selects the voice of generated messages.
type MotivationStyle string

const (
	StyleSupportive  MotivationStyle = "supportive"
	StyleChallenging MotivationStyle = "challenging"
	StyleNeutral     MotivationStyle = "neutral"
)

// Difficulty is the user's preferred goal difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Celebration controls how loudly achievements are celebrated.
type Celebration string

const (
	CelebrationMinimal      Celebration = "minimal"
	CelebrationStandard     Celebration = "standard"
	CelebrationEnthusiastic Celebration = "enthusiastic"
)

// Layout selects the dashboard density.
type Layout string

const (
	LayoutCompact     Layout = "compact"
	LayoutComfortable Layout = "comfortable"
	LayoutSpacious    Layout = "spacious"
)

// Theme selects the color scheme.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// NotificationTiming controls when messages are delivered.
type NotificationTiming string

const (
	TimingImmediate NotificationTiming = "immediate"
	TimingDelayed   NotificationTiming = "delayed"
	TimingManual    NotificationTiming = "manual"
)

// MessageSettings gates the personalized message generators.
type MessageSettings struct {
	ShowAchievements  bool             `json:"show_achievements"`
	ShowEncouragement bool             `json:"show_encouragement"`
	ShowAdvice        bool             `json:"show_advice"`
	ShowGoals         bool             `json:"show_goals"`
	MessageFrequency  MessageFrequency `json:"message_frequency"`
	MotivationStyle   MotivationStyle  `json:"motivation_style"`
}

// GoalSettings controls automatic goal selection.
type GoalSettings struct {
	AutoSetGoals           bool        `json:"auto_set_goals"`
	DifficultyPreference   Difficulty  `json:"difficulty_preference"`
	TimeGoals              bool        `json:"time_goals"`
	ConsistencyGoals       bool        `json:"consistency_goals"`
	AccuracyGoals          bool        `json:"accuracy_goals"`
	StreakGoals            bool        `json:"streak_goals"`
	AchievementCelebration Celebration `json:"achievement_celebration"`
}

// DisplaySettings controls how results are rendered by the UI layer.
type DisplaySettings struct {
	Layout              Layout `json:"layout"`
	Theme               Theme  `json:"theme"`
	ShowGraphs          bool   `json:"show_graphs"`
	ShowTrends          bool   `json:"show_trends"`
	ShowComparisons     bool   `json:"show_comparisons"`
	ShowPercentileRank  bool   `json:"show_percentile_rank"`
	AnimatedTransitions bool   `json:"animated_transitions"`
	CompactNumbers      bool   `json:"compact_numbers"`
}

// NotificationSettings controls message delivery and quiet hours. The
// quiet window is [start, end) in hours of day and may wrap past midnight.
type NotificationSettings struct {
	Enabled            bool               `json:"enabled"`
	SoundEnabled       bool               `json:"sound_enabled"`
	QuietHoursEnabled  bool               `json:"quiet_hours_enabled"`
	NotificationTiming NotificationTiming `json:"notification_timing"`
	QuietHoursStart    int                `json:"quiet_hours_start"`
	QuietHoursEnd      int                `json:"quiet_hours_end"`
}

// InQuietHours reports whether hour falls inside the configured window.
func (n NotificationSettings) InQuietHours(hour int) bool {
	if !n.QuietHoursEnabled {
		return false
	}
	if n.QuietHoursStart == n.QuietHoursEnd {
		return false
	}
	if n.QuietHoursStart < n.QuietHoursEnd {
		return hour >= n.QuietHoursStart && hour < n.QuietHoursEnd
	}
	// Wraparound past midnight, e.g. [22, 8).
	return hour >= n.QuietHoursStart || hour < n.QuietHoursEnd
}

// PrivacySettings controls retention and sharing.
type PrivacySettings struct {
	StoreHistory        bool `json:"store_history"`
	ShareAnalytics      bool `json:"share_analytics"`
	DataRetentionDays   int  `json:"data_retention_days"` // clamped to [1, 365]
	AllowExport         bool `json:"allow_export"`
	AnonymizeDeviceInfo bool `json:"anonymize_device_info"`
}

// AccessibilitySettings holds UI accessibility toggles.
type AccessibilitySettings struct {
	ReduceMotion      bool `json:"reduce_motion"`
	HighContrast      bool `json:"high_contrast"`
	LargeText         bool `json:"large_text"`
	ScreenReaderHints bool `json:"screen_reader_hints"`
	KeyboardShortcuts bool `json:"keyboard_shortcuts"`
}

// Settings is the full analytics configuration document.
type Settings struct {
	EnableDetailedAnalysis bool          `json:"enable_detailed_analysis"`
	EnableRankings         bool          `json:"enable_rankings"`
	EnablePredictions      bool          `json:"enable_predictions"`
	AutoAnalysis           bool          `json:"auto_analysis"`
	AnalysisDepth          AnalysisDepth `json:"analysis_depth"`

	Messages      MessageSettings       `json:"message_settings"`
	Goals         GoalSettings          `json:"goal_settings"`
	Display       DisplaySettings       `json:"display_settings"`
	Notifications NotificationSettings  `json:"notification_settings"`
	Privacy       PrivacySettings       `json:"privacy_settings"`
	Accessibility AccessibilitySettings `json:"accessibility_settings"`
}

// Defaults returns the complete default document.
func Defaults() Settings {
	return Settings{
		EnableDetailedAnalysis: true,
		EnableRankings:         true,
		EnablePredictions:      true,
		AutoAnalysis:           true,
		AnalysisDepth:          DepthStandard,
		Messages: MessageSettings{
			ShowAchievements:  true,
			ShowEncouragement: true,
			ShowAdvice:        true,
			ShowGoals:         true,
			MessageFrequency:  FrequencyBalanced,
			MotivationStyle:   StyleSupportive,
		},
		Goals: GoalSettings{
			AutoSetGoals:           true,
			DifficultyPreference:   DifficultyMedium,
			TimeGoals:              true,
			ConsistencyGoals:       true,
			AccuracyGoals:          true,
			StreakGoals:            true,
			AchievementCelebration: CelebrationStandard,
		},
		Display: DisplaySettings{
			Layout:              LayoutComfortable,
			Theme:               ThemeSystem,
			ShowGraphs:          true,
			ShowTrends:          true,
			ShowComparisons:     true,
			ShowPercentileRank:  true,
			AnimatedTransitions: true,
			CompactNumbers:      false,
		},
		Notifications: NotificationSettings{
			Enabled:            true,
			SoundEnabled:       false,
			QuietHoursEnabled:  false,
			NotificationTiming: TimingImmediate,
			QuietHoursStart:    22,
			QuietHoursEnd:      8,
		},
		Privacy: PrivacySettings{
			StoreHistory:        true,
			ShareAnalytics:      false,
			DataRetentionDays:   90,
			AllowExport:         true,
			AnonymizeDeviceInfo: false,
		},
		Accessibility: AccessibilitySettings{
			ReduceMotion:      false,
			HighContrast:      false,
			LargeText:         false,
			ScreenReaderHints: false,
			KeyboardShortcuts: true,
		},
	}
}

// Normalize clamps or defaults every field so no out-of-range value ever
// reaches a consumer. It is applied at load, import, and on every update;
// invalid values are silently corrected, never rejected.
func Normalize(s Settings) Settings {
	d := Defaults()

	s.AnalysisDepth = oneOf(s.AnalysisDepth, d.AnalysisDepth, DepthBasic, DepthStandard, DepthDetailed)

	s.Messages.MessageFrequency = oneOf(s.Messages.MessageFrequency, d.Messages.MessageFrequency,
		FrequencyMinimal, FrequencyBalanced, FrequencyDetailed)
	s.Messages.MotivationStyle = oneOf(s.Messages.MotivationStyle, d.Messages.MotivationStyle,
		StyleSupportive, StyleChallenging, StyleNeutral)

	s.Goals.DifficultyPreference = oneOf(s.Goals.DifficultyPreference, d.Goals.DifficultyPreference,
		DifficultyEasy, DifficultyMedium, DifficultyHard)
	s.Goals.AchievementCelebration = oneOf(s.Goals.AchievementCelebration, d.Goals.AchievementCelebration,
		CelebrationMinimal, CelebrationStandard, CelebrationEnthusiastic)

	s.Display.Layout = oneOf(s.Display.Layout, d.Display.Layout,
		LayoutCompact, LayoutComfortable, LayoutSpacious)
	s.Display.Theme = oneOf(s.Display.Theme, d.Display.Theme,
		ThemeSystem, ThemeLight, ThemeDark)

	s.Notifications.NotificationTiming = oneOf(s.Notifications.NotificationTiming, d.Notifications.NotificationTiming,
		TimingImmediate, TimingDelayed, TimingManual)
	s.Notifications.QuietHoursStart = clampInt(s.Notifications.QuietHoursStart, 0, 23, d.Notifications.QuietHoursStart)
	s.Notifications.QuietHoursEnd = clampInt(s.Notifications.QuietHoursEnd, 0, 23, d.Notifications.QuietHoursEnd)

	s.Privacy.DataRetentionDays = clampInt(s.Privacy.DataRetentionDays, 1, 365, d.Privacy.DataRetentionDays)

	return s
}

// oneOf returns value if it appears in allowed, else fallback.
func oneOf[T comparable](value, fallback T, allowed ...T) T {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return fallback
}

// clampInt pins value into [lo, hi]; the zero value (unset in a partial
// document) falls back to the default.
func clampInt(value, lo, hi, fallback int) int {
	if value == 0 && fallback != 0 && lo > 0 {
		return fallback
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ShowsMessageType reports whether the per-type toggle allows a message.
func (m MessageSettings) ShowsMessageType(t domain.MessageType) bool {
	switch t {
	case domain.MessageAchievement:
		return m.ShowAchievements
	case domain.MessageEncouragement:
		return m.ShowEncouragement
	case domain.MessageAdvice:
		return m.ShowAdvice
	case domain.MessageGoal:
		return m.ShowGoals
	default:
		return false
	}
}

// ShouldShowMessage combines the delivery gates: manual timing suppresses
// everything, quiet hours suppress by the hour of day, and the per-type
// toggle decides the rest.
func ShouldShowMessage(s Settings, t domain.MessageType, hour int) bool {
	if s.Notifications.NotificationTiming == TimingManual {
		return false
	}
	if s.Notifications.InQuietHours(hour) {
		return false
	}
	return s.Messages.ShowsMessageType(t)
}
