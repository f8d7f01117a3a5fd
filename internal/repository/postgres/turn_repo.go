package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/unfought/api/internal/model"
)

// TurnRepo handles turn record database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateTurn inserts a new turn record.
func (r *TurnRepo) CreateTurn(ctx context.Context, gameID string, turn int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error) {
	var t model.TurnRecord
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (game_id, turn, state_before, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, game_id, turn, state_before, deadline, created_at`,
		gameID, turn, stateBefore, deadline,
	).Scan(&t.ID, &t.GameID, &t.Turn, &t.StateBefore, &t.Deadline, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// CurrentTurn returns the latest unresolved turn record for a game.
func (r *TurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.TurnRecord, error) {
	var t model.TurnRecord
	var stateAfter, events sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, turn, state_before, state_after, events, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, gameID,
	).Scan(&t.ID, &t.GameID, &t.Turn, &t.StateBefore, &stateAfter, &events, &t.Deadline, &t.ResolvedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current turn: %w", err)
	}
	if stateAfter.Valid {
		t.StateAfter = json.RawMessage(stateAfter.String)
	}
	if events.Valid {
		t.Events = json.RawMessage(events.String)
	}
	return &t, nil
}

// ListTurns returns all turn records for a game in chronological order.
func (r *TurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, turn, state_before, state_after, events, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 ORDER BY turn`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.TurnRecord
	for rows.Next() {
		var t model.TurnRecord
		var stateAfter, events sql.NullString
		if err := rows.Scan(&t.ID, &t.GameID, &t.Turn, &t.StateBefore, &stateAfter, &events, &t.Deadline, &t.ResolvedAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if stateAfter.Valid {
			t.StateAfter = json.RawMessage(stateAfter.String)
		}
		if events.Valid {
			t.Events = json.RawMessage(events.String)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ResolveTurn marks a turn as resolved, storing the resulting state and its events.
func (r *TurnRepo) ResolveTurn(ctx context.Context, turnID string, stateAfter, events json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE turns SET state_after = $1, events = $2, resolved_at = now() WHERE id = $3`,
		stateAfter, events, turnID,
	)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	return nil
}

// ListExpired returns the latest unresolved turn per game where the deadline has passed.
// Uses DISTINCT ON to avoid returning orphaned old turns from previous race conditions.
func (r *TurnRepo) ListExpired(ctx context.Context) ([]model.TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (t.game_id) t.id, t.game_id, t.turn, t.state_before, t.deadline, t.created_at
		 FROM turns t
		 JOIN games g ON g.id = t.game_id
		 WHERE t.resolved_at IS NULL AND t.deadline < now() AND g.status = 'active'
		 ORDER BY t.game_id, t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired turns: %w", err)
	}
	defer rows.Close()

	var turns []model.TurnRecord
	for rows.Next() {
		var t model.TurnRecord
		if err := rows.Scan(&t.ID, &t.GameID, &t.Turn, &t.StateBefore, &t.Deadline, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
