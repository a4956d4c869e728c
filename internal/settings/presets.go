package settings

import "fmt"

// Preset names accepted by ApplyPreset.
const (
	PresetMinimal  = "minimal"
	PresetBalanced = "balanced"
	PresetDetailed = "detailed"
)

// PresetNames lists the available presets in display order.
var PresetNames = []string{PresetMinimal, PresetBalanced, PresetDetailed}

// presetFor returns the full settings document for a named preset.
func presetFor(name string) (Settings, error) {
	switch name {
	case PresetMinimal:
		s := Defaults()
		s.EnableDetailedAnalysis = false
		s.EnablePredictions = false
		s.AnalysisDepth = DepthBasic
		s.Messages.ShowEncouragement = false
		s.Messages.ShowAdvice = false
		s.Messages.MessageFrequency = FrequencyMinimal
		s.Goals.AchievementCelebration = CelebrationMinimal
		s.Display.ShowGraphs = false
		s.Display.ShowComparisons = false
		s.Display.AnimatedTransitions = false
		return s, nil

	case PresetBalanced:
		return Defaults(), nil

	case PresetDetailed:
		s := Defaults()
		s.AnalysisDepth = DepthDetailed
		s.Messages.MessageFrequency = FrequencyDetailed
		s.Goals.AchievementCelebration = CelebrationEnthusiastic
		s.Display.Layout = LayoutSpacious
		return s, nil

	default:
		return Settings{}, fmt.Errorf("unknown preset %q (valid: %v)", name, PresetNames)
	}
}
