// Package memory provides in-memory implementations of the repository
// interfaces, used for standalone mode and tests where Postgres and
// Redis are not available.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/unfought/api/internal/model"
)

// Store implements GameRepository and TurnRepository backed by maps.
type Store struct {
	mu      sync.RWMutex
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
	turns   map[string]*model.TurnRecord
	seq     int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
		turns:   make(map[string]*model.TurnRecord),
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// Create inserts a new game in "waiting" status.
func (s *Store) Create(_ context.Context, name string, seed int64) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &model.Game{
		ID:        s.nextID("game"),
		Name:      name,
		Status:    "waiting",
		Seed:      seed,
		CreatedAt: time.Now(),
	}
	s.games[g.ID] = g
	return g, nil
}

// FindByID returns a game by ID with its seats, or nil if absent.
func (s *Store) FindByID(_ context.Context, id string) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), s.players[id]...)
	return &cp, nil
}

func (s *Store) listByStatus(status string) []model.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.Game
	for _, g := range s.games {
		if g.Status == status {
			cp := *g
			cp.Players = append([]model.GamePlayer(nil), s.players[g.ID]...)
			result = append(result, cp)
		}
	}
	return result
}

func (s *Store) ListOpen(_ context.Context) ([]model.Game, error) {
	return s.listByStatus("waiting"), nil
}

func (s *Store) ListActive(_ context.Context) ([]model.Game, error) {
	return s.listByStatus("active"), nil
}

func (s *Store) ListFinished(_ context.Context) ([]model.Game, error) {
	return s.listByStatus("finished"), nil
}

// SeatPlayer fills a seat. Duplicate seats are rejected.
func (s *Store) SeatPlayer(_ context.Context, gameID, seat, name string, isBot bool, difficulty string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players[gameID] {
		if p.Seat == seat {
			return fmt.Errorf("seat %s already taken", seat)
		}
	}
	s.players[gameID] = append(s.players[gameID], model.GamePlayer{
		GameID:        gameID,
		Seat:          seat,
		Name:          name,
		IsBot:         isBot,
		BotDifficulty: difficulty,
		JoinedAt:      time.Now(),
	})
	return nil
}

func (s *Store) SetActive(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameID]; ok {
		g.Status = "active"
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (s *Store) SetFinished(_ context.Context, gameID, winner, victory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
		g.Victory = victory
		now := time.Now()
		g.FinishedAt = &now
	}
	return nil
}

func (s *Store) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	delete(s.players, gameID)
	for id, t := range s.turns {
		if t.GameID == gameID {
			delete(s.turns, id)
		}
	}
	return nil
}

// CreateTurn inserts a new turn record.
func (s *Store) CreateTurn(_ context.Context, gameID string, turn int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &model.TurnRecord{
		ID:          s.nextID("turn"),
		GameID:      gameID,
		Turn:        turn,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	s.turns[t.ID] = t
	return t, nil
}

// CurrentTurn returns the latest unresolved turn record for a game.
func (s *Store) CurrentTurn(_ context.Context, gameID string) (*model.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.TurnRecord
	for _, t := range s.turns {
		if t.GameID != gameID || t.ResolvedAt != nil {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) || (t.CreatedAt.Equal(latest.CreatedAt) && t.Turn > latest.Turn) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) ListTurns(_ context.Context, gameID string) ([]model.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.TurnRecord
	for _, t := range s.turns {
		if t.GameID == gameID {
			result = append(result, *t)
		}
	}
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Turn < result[i].Turn {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (s *Store) ResolveTurn(_ context.Context, turnID string, stateAfter, events json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.turns[turnID]; ok {
		t.StateAfter = stateAfter
		t.Events = events
		now := time.Now()
		t.ResolvedAt = &now
	}
	return nil
}

// ListExpired returns unresolved turns past their deadline for active games.
func (s *Store) ListExpired(_ context.Context) ([]model.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	var result []model.TurnRecord
	for _, t := range s.turns {
		g, ok := s.games[t.GameID]
		if !ok || g.Status != "active" {
			continue
		}
		if t.ResolvedAt == nil && t.Deadline.Before(now) {
			result = append(result, *t)
		}
	}
	return result, nil
}
