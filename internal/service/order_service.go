package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unfought/api/internal/repository"
	"github.com/unfought/api/pkg/battle"
)

var (
	ErrInvalidOrder     = errors.New("invalid order")
	ErrAlreadySubmitted = errors.New("orders already submitted this turn")
)

// OrderSubmission is the request payload for submitting orders.
type OrderSubmission struct {
	Orders []OrderInput `json:"orders"`
}

// OrderInput represents a single order from the client.
type OrderInput struct {
	Force       int         `json:"force"`
	Type        string      `json:"type"`
	Target      *CoordInput `json:"target,omitempty"`
	TargetForce int         `json:"target_force,omitempty"`
}

// CoordInput is a hex coordinate on the wire.
type CoordInput struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// SubmitResult reports a successful submission and the readiness tally.
type SubmitResult struct {
	Accepted   int   `json:"accepted"`
	ReadyCount int64 `json:"ready_count"`
	AllReady   bool  `json:"all_ready"`
}

// OrderService handles order submission: parse, validate all-or-nothing
// against the live state, buffer in the cache, and mark the seat ready.
type OrderService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	cache    repository.GameCache
}

// NewOrderService creates an OrderService.
func NewOrderService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.GameCache) *OrderService {
	return &OrderService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache}
}

// SubmitOrders validates a seat's whole batch and buffers it for the
// current turn. A second submission in the same turn is rejected; a seat
// that wants different orders waits for the next turn.
func (s *OrderService) SubmitOrders(ctx context.Context, gameID, seat string, inputs []OrderInput) (*SubmitResult, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if !hasSeat(game, seat) {
		return nil, ErrNotInGame
	}

	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, gameID)
	if err != nil {
		return nil, err
	}
	if gs.Phase != battle.PhasePlan {
		return nil, fmt.Errorf("%w: %s", ErrWrongPhase, gs.Phase)
	}

	existing, err := s.cache.GetOrders(ctx, gameID, seat)
	if err != nil {
		return nil, fmt.Errorf("check buffered orders: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadySubmitted
	}

	orders, err := parseOrders(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err)
	}
	if err := battle.ValidateOrders(gs, battle.PlayerID(seat), orders); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err)
	}

	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return nil, fmt.Errorf("marshal orders: %w", err)
	}
	if err := s.cache.SetOrders(ctx, gameID, seat, ordersJSON); err != nil {
		return nil, fmt.Errorf("cache orders: %w", err)
	}
	if err := s.cache.MarkReady(ctx, gameID, seat); err != nil {
		return nil, fmt.Errorf("mark ready: %w", err)
	}

	readyCount, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("ready count: %w", err)
	}
	return &SubmitResult{
		Accepted:   len(orders),
		ReadyCount: readyCount,
		AllReady:   readyCount >= int64(len(allSeats())),
	}, nil
}

// parseOrders converts wire inputs to engine orders.
func parseOrders(inputs []OrderInput) ([]battle.Order, error) {
	orders := make([]battle.Order, 0, len(inputs))
	for _, in := range inputs {
		t, err := battle.ParseOrderType(in.Type)
		if err != nil {
			return nil, err
		}
		o := battle.Order{Force: in.Force, Type: t, TargetForce: in.TargetForce}
		if in.Target != nil {
			o.Target = battle.Coord{Q: in.Target.Q, R: in.Target.R}
		}
		orders = append(orders, o)
	}
	return orders, nil
}
