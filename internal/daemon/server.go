// Package daemon is the local HTTP surface of the analytics engine: a
// loopback server the game UI talks to for saving results, reading
// analyses and statistics, and managing settings.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/reflexlabs/reflex/internal/analytics"
	"github.com/reflexlabs/reflex/internal/config"
	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/settings"
	"github.com/reflexlabs/reflex/internal/storage"
	"github.com/reflexlabs/reflex/internal/storage/local"
	"github.com/reflexlabs/reflex/internal/storage/sqlite"
)

const version = "0.1.0"

// Server represents the reflex daemon HTTP server
type Server struct {
	cfg    *config.Config
	server *http.Server
	router *http.ServeMux
	logger *slog.Logger

	store    storage.Store
	settings *settings.Store
	manager  *analytics.Manager
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config *config.Config

	// DataPath overrides the configured data location.
	DataPath string

	Logger *slog.Logger
}

// NewServer creates a new daemon server wired to the configured
// storage backend.
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg.Config,
		router: http.NewServeMux(),
		logger: logger,
	}

	dataPath := cfg.DataPath
	if dataPath == "" {
		resolved, err := cfg.Config.DataPath()
		if err != nil {
			return nil, fmt.Errorf("resolve data path: %w", err)
		}
		dataPath = resolved
	}

	switch cfg.Config.Storage.Backend {
	case "sqlite":
		store, err := sqlite.Open(dataPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.store = store
	default:
		store, err := local.NewStore(dataPath)
		if err != nil {
			return nil, fmt.Errorf("create file store: %w", err)
		}
		s.store = store
	}

	s.settings = settings.NewStore(s.store, logger)
	s.manager = analytics.NewManager(s.store, s.settings, logger)

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(loggingMiddleware(correlationIDMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Game results & analysis
	s.router.HandleFunc("POST /v1/results", s.handleSaveResult)
	s.router.HandleFunc("GET /v1/analysis", s.handleGetAnalysis)
	s.router.HandleFunc("GET /v1/statistics", s.handleGetStatistics)

	// Settings
	s.router.HandleFunc("GET /v1/settings", s.handleGetSettings)
	s.router.HandleFunc("PUT /v1/settings", s.handleUpdateSettings)
	s.router.HandleFunc("PATCH /v1/settings", s.handlePatchSettings)
	s.router.HandleFunc("POST /v1/settings/reset", s.handleResetSettings)
	s.router.HandleFunc("POST /v1/settings/presets/{name}", s.handleApplyPreset)
	s.router.HandleFunc("GET /v1/settings/export", s.handleExportSettings)
	s.router.HandleFunc("POST /v1/settings/import", s.handleImportSettings)

	// Data management
	s.router.HandleFunc("GET /v1/data/export", s.handleExportData)
	s.router.HandleFunc("POST /v1/data/import", s.handleImportData)
	s.router.HandleFunc("POST /v1/data/reset", s.handleResetData)

	// Goals & messages
	s.router.HandleFunc("POST /v1/goals/{id}/achieved", s.handleGoalAchieved)
	s.router.HandleFunc("GET /v1/messages/visibility", s.handleMessageVisibility)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting reflex daemon",
		"addr", s.server.Addr,
		"backend", s.cfg.Storage.Backend,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("failed to close store", "error", err)
		}
	}

	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.manager.GetStatistics(r.Context())
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "running",
		"version":     version,
		"backend":     s.cfg.Storage.Backend,
		"total_games": stats.TotalGames,
	})
}

func (s *Server) handleSaveResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Results           []float64 `json:"results"`
		GameMode          string    `json:"game_mode"`
		Accuracy          *float64  `json:"accuracy,omitempty"`
		SessionDurationMs int64     `json:"session_duration_ms,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Results) == 0 {
		s.jsonError(w, http.StatusBadRequest, "results are required", nil)
		return
	}

	game, err := s.manager.SaveGameResult(r.Context(), req.Results, domain.GameMode(req.GameMode), analytics.SaveOptions{
		Accuracy:          req.Accuracy,
		SessionDurationMs: req.SessionDurationMs,
		UserAgent:         r.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGameMode) {
			s.jsonError(w, http.StatusBadRequest, "invalid game mode", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to save result", err)
		return
	}

	analysis := s.manager.AnalyzeGameResult(r.Context(), game)
	s.jsonResponse(w, http.StatusCreated, map[string]interface{}{
		"game":     game,
		"analysis": analysis,
	})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	game, ok := s.manager.LatestGame()
	if !ok {
		s.jsonError(w, http.StatusNotFound, "no games recorded yet", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.AnalyzeGameResult(r.Context(), game))
}

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.manager.GetStatistics(r.Context()))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.manager.GetSettings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid settings document", err)
		return
	}
	if err := s.manager.UpdateSettings(next); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to update settings", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.GetSettings())
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	if err := s.manager.UpdatePartialSettings(patch); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid settings patch", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.GetSettings())
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.Reset(); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to reset settings", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.GetSettings())
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.settings.ApplyPreset(name); err != nil {
		s.jsonError(w, http.StatusBadRequest, "unknown preset", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.GetSettings())
}

func (s *Server) handleExportSettings(w http.ResponseWriter, r *http.Request) {
	payload, err := s.settings.Export()
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to export settings", err)
		return
	}
	s.rawJSON(w, http.StatusOK, payload)
}

func (s *Server) handleImportSettings(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	if err := s.settings.Import(payload); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid settings document", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.GetSettings())
}

func (s *Server) handleExportData(w http.ResponseWriter, r *http.Request) {
	payload, err := s.manager.ExportData(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusForbidden, "export not available", err)
		return
	}
	s.rawJSON(w, http.StatusOK, payload)
}

func (s *Server) handleImportData(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	if err := s.manager.ImportData(r.Context(), payload); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid analytics document", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.manager.GetStatistics(r.Context()))
}

func (s *Server) handleResetData(w http.ResponseWriter, r *http.Request) {
	s.manager.ResetData(r.Context())
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status": "reset",
	})
}

func (s *Server) handleGoalAchieved(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")
	if goalID == "" {
		s.jsonError(w, http.StatusBadRequest, "goal id is required", nil)
		return
	}
	s.manager.RecordGoalAchievement(r.Context(), goalID)
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"goal_id": goalID,
		"status":  "recorded",
	})
}

func (s *Server) handleMessageVisibility(w http.ResponseWriter, r *http.Request) {
	msgType := domain.MessageType(r.URL.Query().Get("type"))
	switch msgType {
	case domain.MessageAchievement, domain.MessageEncouragement, domain.MessageAdvice, domain.MessageGoal:
	default:
		s.jsonError(w, http.StatusBadRequest, "unknown message type", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"type":    msgType,
		"visible": s.manager.ShouldShowMessage(msgType),
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) rawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
