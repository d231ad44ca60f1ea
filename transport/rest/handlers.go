package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/canvas"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/repository"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/usecase"
)

type sessionSource interface {
	Sessions() []usecase.SessionInfo
	SessionByID(id string) (*usecase.GameSession, error)
}

type matchSource interface {
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type Handler struct {
	logger   *slog.Logger
	sessions sessionSource
	matches  matchSource
}

func NewHandler(logger *slog.Logger, sessions sessionSource, matches matchSource) *Handler {
	return &Handler{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		matches:  matches,
	}
}

func (that *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(that.sessions.Sessions()),
	})
}

// ListSessions handles GET /v1/sessions
func (that *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, that.sessions.Sessions())
}

// SessionBoard handles GET /v1/sessions/{id}/board.png with the spectator view.
func (that *Handler) SessionBoard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "SessionBoard")

	session, err := that.sessions.SessionByID(chi.URLParam(r, "id"))
	if errors.Is(err, apperror.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if err != nil {
		log.Error("failed to get session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	board, err := canvas.EncodePNG(session.SpectatorRender().Canvas)
	if err != nil {
		log.Error("failed to encode board", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(board); err != nil {
		log.Error("failed to write board", "error", err)
	}
}

// ListMatches handles GET /v1/matches?limit=n
func (that *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ListMatches")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := that.matches.ListRecent(r.Context(), limit)
	if err != nil {
		log.Error("failed to list matches", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetMatch handles GET /v1/matches/{id}
func (that *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetMatch")

	record, err := that.matches.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrMatchNotFound) {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}

	if err != nil {
		log.Error("failed to get match", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
