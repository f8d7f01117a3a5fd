package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unfought/api/internal/service"
)

// GameHandler handles game lifecycle endpoints.
type GameHandler struct {
	gameSvc *service.GameService
	turnSvc *service.TurnService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, turnSvc *service.TurnService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, turnSvc: turnSvc}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		PlayerName    string `json:"player_name,omitempty"`
		Seed          int64  `json:"seed,omitempty"`
		VsBot         bool   `json:"vs_bot,omitempty"`
		BotDifficulty string `json:"bot_difficulty,omitempty"`
		BotOnly       bool   `json:"bot_only,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Name, req.PlayerName, req.Seed, req.VsBot, req.BotDifficulty, req.BotOnly)
	if err != nil {
		if errors.Is(err, service.ErrBadBotTier) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if game.Status == "active" {
		h.kickBots(game.ID)
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	games, err := h.gameSvc.ListGames(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}. With ?player_id= the response
// also carries that seat's fog view of the live state.
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if game.Status == "active" {
		if count, err := h.turnSvc.ReadyCount(r.Context(), gameID); err == nil {
			game.ReadyCount = count
		}
	}

	seat := r.URL.Query().Get("player_id")
	if seat == "" {
		writeJSON(w, http.StatusOK, game)
		return
	}

	view, err := h.seatView(r.Context(), game.Status, gameID, seat)
	if err != nil {
		writeError(w, viewErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game": game, "view": view})
}

func (h *GameHandler) seatView(ctx context.Context, status, gameID, seat string) (any, error) {
	if status == "finished" {
		return h.gameSvc.FinalView(ctx, gameID, seat)
	}
	return h.gameSvc.View(ctx, gameID, seat)
}

func viewErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotInGame):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGameNotActive), errors.Is(err, service.ErrNoLiveState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		PlayerName string `json:"player_name,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	seat, err := h.gameSvc.JoinGame(r.Context(), gameID, req.PlayerName)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameFull) || errors.Is(err, service.ErrGameNotWaiting) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	h.kickBots(gameID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined", "player_id": seat})
}

// Deploy handles POST /api/v1/games/{id}/deploy
func (h *GameHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		PlayerID string `json:"player_id"`
		Powers   []int  `json:"powers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	view, err := h.gameSvc.Deploy(r.Context(), gameID, req.PlayerID, req.Powers)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrInvalidDeploy) || errors.Is(err, service.ErrGameNotActive) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Concede handles POST /api/v1/games/{id}/concede
func (h *GameHandler) Concede(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	if err := h.gameSvc.Concede(r.Context(), gameID, req.PlayerID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrGameNotActive) || errors.Is(err, service.ErrGameOver) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "conceded"})
}

// EventLog handles GET /api/v1/games/{id}/log?player_id=
func (h *GameHandler) EventLog(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	seat := r.URL.Query().Get("player_id")
	if seat == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	events, err := h.gameSvc.EventLog(r.Context(), gameID, seat)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrNoLiveState) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// kickBots runs bot deployment and planning in the background once a
// game goes active.
func (h *GameHandler) kickBots(gameID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.turnSvc.SubmitBotOrders(ctx, gameID); err != nil {
			log.Error().Err(err).Str("gameId", gameID).Msg("Failed to submit bot orders after game start")
		}
	}()
}
