package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/unfought/api/internal/model"
)

// GameRepository defines game and seat data operations.
type GameRepository interface {
	Create(ctx context.Context, name string, seed int64) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	SeatPlayer(ctx context.Context, gameID, seat, name string, isBot bool, difficulty string) error
	SetActive(ctx context.Context, gameID string) error
	SetFinished(ctx context.Context, gameID, winner, victory string) error
	Delete(ctx context.Context, gameID string) error
}

// TurnRepository defines turn record data operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, turn int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.TurnRecord, error)
	ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error)
	ResolveTurn(ctx context.Context, turnID string, stateAfter, events json.RawMessage) error
	ListExpired(ctx context.Context) ([]model.TurnRecord, error)
}

// GameCache defines live game state operations (Redis or in-memory).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetOrders(ctx context.Context, gameID, seat string, orders json.RawMessage) error
	GetOrders(ctx context.Context, gameID, seat string) (json.RawMessage, error)
	GetAllOrders(ctx context.Context, gameID string, seats []string) (map[string]json.RawMessage, error)
	MarkReady(ctx context.Context, gameID, seat string) error
	UnmarkReady(ctx context.Context, gameID, seat string) error
	ReadyCount(ctx context.Context, gameID string) (int64, error)
	ReadySeats(ctx context.Context, gameID string) ([]string, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	ClearTurnData(ctx context.Context, gameID string, seats []string) error
	DeleteGameData(ctx context.Context, gameID string, seats []string) error
}
