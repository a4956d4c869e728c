package insight

import (
	"fmt"
	"sort"

	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/settings"
)

const (
	bigImprovementPct     = 15
	decliningTrendPct     = -10
	almostThereProgress   = 80
	inProgressThreshold   = 50
	maxMessagesPerRequest = 3
)

// GeneratePersonalizedMessages runs the four message families over one
// analysis, filters them through the user's delivery settings, and
// returns the highest-priority survivors (at most three, one when the
// frequency is minimal).
func (g *Generator) GeneratePersonalizedMessages(game domain.GameResult, metrics domain.PerformanceMetrics, insights domain.UserInsights) []domain.PersonalizedMessage {
	cfg := g.settings()
	hour := g.now().Hour()

	var candidates []domain.PersonalizedMessage
	candidates = append(candidates, g.performanceMessages(metrics)...)
	candidates = append(candidates, g.timeMessages(insights, hour)...)
	candidates = append(candidates, g.goalMessages(insights)...)
	candidates = append(candidates, g.encouragementMessages(metrics, insights, cfg)...)

	var shown []domain.PersonalizedMessage
	for _, msg := range candidates {
		if settings.ShouldShowMessage(cfg, msg.Type, hour) {
			shown = append(shown, msg)
		}
	}

	sort.SliceStable(shown, func(i, j int) bool {
		return shown[i].Priority.Weight() < shown[j].Priority.Weight()
	})

	limit := maxMessagesPerRequest
	if cfg.Messages.MessageFrequency == settings.FrequencyMinimal {
		limit = 1
	}
	if len(shown) > limit {
		shown = shown[:limit]
	}
	return shown
}

func (g *Generator) performanceMessages(metrics domain.PerformanceMetrics) []domain.PersonalizedMessage {
	var out []domain.PersonalizedMessage

	if metrics.GamesPlayed > 1 && metrics.AverageTime > 0 && metrics.AverageTime <= metrics.BestTime {
		out = append(out, domain.PersonalizedMessage{
			Type:     domain.MessageAchievement,
			Title:    "New personal best!",
			Content:  fmt.Sprintf("You averaged %.0f ms, your fastest game yet.", metrics.AverageTime),
			Priority: domain.PriorityHigh,
		})
	}

	if metrics.Improvement > bigImprovementPct {
		out = append(out, domain.PersonalizedMessage{
			Type:     domain.MessageAchievement,
			Title:    "Big leap forward",
			Content:  fmt.Sprintf("That game was %.0f%% faster than your recent average.", metrics.Improvement),
			Priority: domain.PriorityHigh,
		})
	}

	if metrics.Rank <= eliteRank {
		out = append(out, domain.PersonalizedMessage{
			Type:     domain.MessageAchievement,
			Title:    "Top-tier speed",
			Content:  "Your average puts you among the fastest 10% of players.",
			Priority: domain.PriorityMedium,
		})
	}

	return out
}

func (g *Generator) timeMessages(insights domain.UserInsights, hour int) []domain.PersonalizedMessage {
	if hour == insights.BestHour {
		return []domain.PersonalizedMessage{{
			Type:     domain.MessageAdvice,
			Title:    "Prime time",
			Content:  "This is historically your sharpest hour. A ranked run now plays to it.",
			Priority: domain.PriorityMedium,
			Actionable: &domain.MessageAction{
				Label:  "Play ranked",
				Action: "play_ranked",
			},
		}}
	}

	return []domain.PersonalizedMessage{{
		Type:     domain.MessageAdvice,
		Title:    "Know your window",
		Content:  fmt.Sprintf("You tend to be fastest around %02d:00. Save the serious runs for then.", insights.BestHour),
		Priority: domain.PriorityLow,
	}}
}

func (g *Generator) goalMessages(insights domain.UserInsights) []domain.PersonalizedMessage {
	goal := insights.NextGoal

	switch {
	case goal.Progress >= almostThereProgress:
		return []domain.PersonalizedMessage{{
			Type:     domain.MessageGoal,
			Title:    "Almost there",
			Content:  fmt.Sprintf("Your %s goal is %.0f%% complete, one good session should do it.", goal.Type, goal.Progress),
			Priority: domain.PriorityHigh,
		}}
	case goal.Progress >= inProgressThreshold:
		return []domain.PersonalizedMessage{{
			Type:     domain.MessageGoal,
			Title:    "Goal in progress",
			Content:  fmt.Sprintf("You are %.0f%% of the way to your %s goal.", goal.Progress, goal.Type),
			Priority: domain.PriorityMedium,
		}}
	}
	return nil
}

func (g *Generator) encouragementMessages(metrics domain.PerformanceMetrics, insights domain.UserInsights, cfg settings.Settings) []domain.PersonalizedMessage {
	style := cfg.Messages.MotivationStyle

	if metrics.Improvement < decliningTrendPct {
		return []domain.PersonalizedMessage{{
			Type:     domain.MessageEncouragement,
			Title:    "Rough patch",
			Content:  decliningContent(style),
			Priority: domain.PriorityMedium,
			Actionable: &domain.MessageAction{
				Label:  "Play normal",
				Action: "play_normal",
			},
		}}
	}

	if metrics.Consistency > looseConsistencyMs {
		return []domain.PersonalizedMessage{{
			Type:     domain.MessageEncouragement,
			Title:    "Smooth it out",
			Content:  varianceContent(style),
			Priority: domain.PriorityLow,
		}}
	}

	if len(insights.Strengths) > 0 {
		return []domain.PersonalizedMessage{{
			Type:     domain.MessageEncouragement,
			Title:    "Lean on your strengths",
			Content:  fmt.Sprintf("%s. Build your next sessions around it.", insights.Strengths[0]),
			Priority: domain.PriorityLow,
		}}
	}
	return nil
}

func decliningContent(style settings.MotivationStyle) string {
	switch style {
	case settings.StyleChallenging:
		return "Recent games slipped. Drop into normal mode and win the pace back."
	case settings.StyleNeutral:
		return "Recent averages are above your usual pace. A few normal-mode games may reset it."
	default:
		return "Everyone has slower days. A relaxed normal-mode session is a good way back."
	}
}

func varianceContent(style settings.MotivationStyle) string {
	switch style {
	case settings.StyleChallenging:
		return "Your spread is too wide. Focus on hitting the same time every round."
	case settings.StyleNeutral:
		return "Round times vary widely. Consistent rhythm usually lowers the average too."
	default:
		return "Your times swing a bit. Try settling into a rhythm, the speed will follow."
	}
}
