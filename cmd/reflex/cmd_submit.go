package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// cmdSubmit records a game's round times with the daemon.
//
//	reflex submit [--mode <mode>] <ms> [<ms> ...]
func cmdSubmit(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'reflex start' first)")
	}

	mode := "normal"
	var times []float64
	for i := 0; i < len(args); i++ {
		if args[i] == "--mode" {
			if i+1 >= len(args) {
				return fmt.Errorf("--mode requires a value")
			}
			i++
			mode = args[i]
			continue
		}
		ms, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("invalid round time %q", args[i])
		}
		times = append(times, ms)
	}
	if len(times) == 0 {
		return fmt.Errorf("at least one round time is required")
	}

	payload, err := json.Marshal(map[string]any{
		"results":   times,
		"game_mode": mode,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(daemonAddr+"/v1/results", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("daemon rejected result: %s", failure.Error)
	}

	var body struct {
		Analysis struct {
			Metrics struct {
				AverageTime float64 `json:"average_time"`
				Rank        int     `json:"rank"`
				Improvement float64 `json:"improvement"`
			} `json:"metrics"`
			Messages []struct {
				Title string `json:"title"`
			} `json:"messages"`
		} `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Recorded %s game: %.0f ms avg, top %d%%, %+.1f%%\n",
		mode,
		body.Analysis.Metrics.AverageTime,
		body.Analysis.Metrics.Rank,
		body.Analysis.Metrics.Improvement)
	for _, m := range body.Analysis.Messages {
		fmt.Printf("  • %s\n", m.Title)
	}
	return nil
}
