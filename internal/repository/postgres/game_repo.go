package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/unfought/api/internal/model"
)

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game in "waiting" status.
func (r *GameRepo) Create(ctx context.Context, name string, seed int64) (*model.Game, error) {
	var g model.Game
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (name, seed)
		 VALUES ($1, $2)
		 RETURNING id, name, status, seed, created_at`,
		name, seed,
	).Scan(&g.ID, &g.Name, &g.Status, &g.Seed, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

// FindByID returns a game by ID with its seats.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var winner, victory sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, seed, winner, victory, created_at, started_at, finished_at
		 FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Status, &g.Seed, &winner, &victory, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.Winner = winner.String
	g.Victory = victory.String

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return &g, nil
}

// ListOpen returns games in "waiting" status.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return r.listByStatus(ctx, "waiting", "created_at DESC", 50)
}

// ListActive returns all games with status 'active', including their seats.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	return r.listByStatus(ctx, "active", "created_at", 0)
}

// ListFinished returns finished games, most recent first.
func (r *GameRepo) ListFinished(ctx context.Context) ([]model.Game, error) {
	return r.listByStatus(ctx, "finished", "finished_at DESC", 100)
}

func (r *GameRepo) listByStatus(ctx context.Context, status, order string, limit int) ([]model.Game, error) {
	q := fmt.Sprintf(
		`SELECT id, name, status, seed, winner, victory, created_at, started_at, finished_at
		 FROM games WHERE status = $1 ORDER BY %s`, order)
	if limit > 0 {
		q = fmt.Sprintf("%s LIMIT %d", q, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("list %s games: %w", status, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var winner, victory sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &g.Seed, &winner, &victory, &g.CreatedAt, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Winner = winner.String
		g.Victory = victory.String
		players, err := r.ListPlayers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		g.Players = players
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListPlayers returns both seats of a game, in seat order.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, seat, name, is_bot, bot_difficulty, joined_at
		 FROM game_players WHERE game_id = $1 ORDER BY seat`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		var difficulty sql.NullString
		if err := rows.Scan(&p.GameID, &p.Seat, &p.Name, &p.IsBot, &difficulty, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.BotDifficulty = difficulty.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// SeatPlayer fills a seat in a game. Seats are unique per game.
func (r *GameRepo) SeatPlayer(ctx context.Context, gameID, seat, name string, isBot bool, difficulty string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, seat, name, is_bot, bot_difficulty)
		 VALUES ($1, $2, $3, $4, $5)`,
		gameID, seat, name, isBot, nullStr(difficulty),
	)
	if err != nil {
		return fmt.Errorf("seat player: %w", err)
	}
	return nil
}

// SetActive marks a game as started.
func (r *GameRepo) SetActive(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'active', started_at = now() WHERE id = $1`, gameID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// SetFinished marks a game as finished with its winner and victory kind.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner, victory string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $1, victory = $2, finished_at = now() WHERE id = $3`,
		nullStr(winner), nullStr(victory), gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a game and all associated data (cascades to players and turns).
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
