package model

import (
	"encoding/json"
	"time"
)

// Game represents a battle between two seats.
type Game struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Status     string       `json:"status"` // waiting, active, finished
	Seed       int64        `json:"seed"`
	Winner     string       `json:"winner,omitempty"`
	Victory    string       `json:"victory,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Players    []GamePlayer `json:"players,omitempty"`
	ReadyCount int          `json:"ready_count,omitempty"`
}

// GamePlayer represents a seat in a game, either a human or a bot.
type GamePlayer struct {
	GameID        string    `json:"game_id"`
	Seat          string    `json:"seat"` // p1 or p2
	Name          string    `json:"name"`
	IsBot         bool      `json:"is_bot"`
	BotDifficulty string    `json:"bot_difficulty,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// TurnRecord captures one turn of a game: the state it opened with,
// the state it resolved to, and the events produced in between.
type TurnRecord struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Turn        int             `json:"turn"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Events      json.RawMessage `json:"events,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
