package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// cmdStats shows performance statistics
func cmdStats(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'reflex start' first)")
	}

	subCmd := "overview"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "overview", "":
		return cmdStatsOverview()
	case "analysis":
		return cmdStatsAnalysis()
	default:
		return fmt.Errorf("unknown stats command: %s (valid: overview, analysis)", subCmd)
	}
}

func cmdStatsOverview() error {
	resp, err := http.Get(daemonAddr + "/v1/statistics")
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}
	defer resp.Body.Close()

	var stats struct {
		TotalGames int `json:"total_games"`
		TimeBased  []struct {
			Hour        int     `json:"hour"`
			AverageTime float64 `json:"average_time"`
			GamesPlayed int     `json:"games_played"`
		} `json:"time_based"`
		ModeBased []struct {
			Mode        string  `json:"mode"`
			AverageTime float64 `json:"average_time"`
			GamesPlayed int     `json:"games_played"`
			Improvement float64 `json:"improvement"`
		} `json:"mode_based"`
		WeeklyTrend struct {
			Direction     string  `json:"direction"`
			ChangePercent float64 `json:"change_percent"`
		} `json:"weekly_trend"`
		UserProfile struct {
			FavoriteMode  string   `json:"favorite_mode"`
			AchievedGoals []string `json:"achieved_goals"`
		} `json:"user_profile"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Println("Performance Statistics")
	fmt.Println("======================")
	fmt.Printf("Total Games:    %d\n", stats.TotalGames)
	fmt.Printf("Favorite Mode:  %s\n", stats.UserProfile.FavoriteMode)
	fmt.Printf("Weekly Trend:   %s (%.0f%%)\n", stats.WeeklyTrend.Direction, stats.WeeklyTrend.ChangePercent)
	if len(stats.UserProfile.AchievedGoals) > 0 {
		fmt.Printf("Goals Achieved: %s\n", strings.Join(stats.UserProfile.AchievedGoals, ", "))
	}

	if len(stats.ModeBased) > 0 {
		fmt.Println("\nBy Mode")
		fmt.Println("-------")
		for _, m := range stats.ModeBased {
			if m.GamesPlayed == 0 {
				continue
			}
			fmt.Printf("%-10s %6.0f ms avg  %3d games  %+.1f%%\n",
				m.Mode, m.AverageTime, m.GamesPlayed, m.Improvement)
		}
	}

	if len(stats.TimeBased) > 0 {
		fmt.Println("\nBy Hour")
		fmt.Println("-------")
		for _, h := range stats.TimeBased {
			fmt.Printf("%02d:00  %6.0f ms avg  %3d games\n",
				h.Hour, h.AverageTime, h.GamesPlayed)
		}
	}

	return nil
}

func cmdStatsAnalysis() error {
	resp, err := http.Get(daemonAddr + "/v1/analysis")
	if err != nil {
		return fmt.Errorf("get analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Println("No games recorded yet. Play a game first.")
		return nil
	}

	var analysis struct {
		Metrics struct {
			AverageTime float64 `json:"average_time"`
			Consistency float64 `json:"consistency"`
			Improvement float64 `json:"improvement"`
			Rank        int     `json:"rank"`
			Streak      int     `json:"streak"`
			BestTime    float64 `json:"best_time"`
		} `json:"metrics"`
		Insights struct {
			Strengths  []string `json:"strengths"`
			Weaknesses []string `json:"weaknesses"`
			NextGoal   struct {
				Type     string  `json:"type"`
				Target   float64 `json:"target"`
				Progress float64 `json:"progress"`
			} `json:"next_goal"`
		} `json:"insights"`
		Messages []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Println("Latest Analysis")
	fmt.Println("===============")
	fmt.Printf("Average:     %.0f ms\n", analysis.Metrics.AverageTime)
	fmt.Printf("Best:        %.0f ms\n", analysis.Metrics.BestTime)
	fmt.Printf("Consistency: ±%.0f ms\n", analysis.Metrics.Consistency)
	fmt.Printf("Improvement: %+.1f%%\n", analysis.Metrics.Improvement)
	fmt.Printf("Rank:        top %d%%\n", analysis.Metrics.Rank)
	fmt.Printf("Streak:      %d\n", analysis.Metrics.Streak)

	if len(analysis.Insights.Strengths) > 0 {
		fmt.Println("\nStrengths")
		for _, s := range analysis.Insights.Strengths {
			fmt.Printf("  + %s\n", s)
		}
	}
	if len(analysis.Insights.Weaknesses) > 0 {
		fmt.Println("\nWeaknesses")
		for _, w := range analysis.Insights.Weaknesses {
			fmt.Printf("  - %s\n", w)
		}
	}

	goal := analysis.Insights.NextGoal
	bar := renderProgressBar(goal.Progress/100, 20)
	fmt.Printf("\nNext Goal: %s (target %.0f)\n%s %.0f%%\n", goal.Type, goal.Target, bar, goal.Progress)

	if len(analysis.Messages) > 0 {
		fmt.Println("\nMessages")
		for _, m := range analysis.Messages {
			fmt.Printf("  %s: %s\n", m.Title, m.Content)
		}
	}

	return nil
}
