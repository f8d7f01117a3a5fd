package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unfought/api/internal/service"
)

// OrderHandler handles order submission.
type OrderHandler struct {
	orderSvc *service.OrderService
	turnSvc  *service.TurnService
	hub      *Hub
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService, turnSvc *service.TurnService, hub *Hub) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, turnSvc: turnSvc, hub: hub}
}

// SubmitOrders handles POST /api/v1/games/{id}/orders. Accepting a batch
// marks the seat ready; when both seats are ready the turn resolves early.
func (h *OrderHandler) SubmitOrders(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	var req struct {
		PlayerID string               `json:"player_id"`
		Orders   []service.OrderInput `json:"orders"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	result, err := h.orderSvc.SubmitOrders(r.Context(), gameID, req.PlayerID, req.Orders)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrGameNotActive) || errors.Is(err, service.ErrWrongPhase) || errors.Is(err, service.ErrAlreadySubmitted) {
			status = http.StatusBadRequest
		} else if errors.Is(err, service.ErrInvalidOrder) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToGame(gameID, WSEvent{
			Type:   EventPlayerReady,
			GameID: gameID,
			Data: map[string]any{
				"player_id":   req.PlayerID,
				"ready_count": result.ReadyCount,
			},
		})
	}

	// Early resolution runs on a detached context since the request
	// context is cancelled on handler return.
	if result.AllReady {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.turnSvc.ResolveTurnEarly(ctx, gameID); err != nil {
				log.Error().Err(err).Str("gameId", gameID).Msg("Early resolution failed")
			}
		}()
	}

	writeJSON(w, http.StatusOK, result)
}
