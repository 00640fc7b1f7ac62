package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/kapu/notyourbuddy/internal/domain"
)

type Repository interface {
	InsertRun(ctx context.Context, run *domain.BanterRun) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]*domain.BanterRun, error)
	BestScore(ctx context.Context) (int, error)
	Close() error
}

type repository struct {
	db *sql.DB
}

// NewRepository opens a Postgres-backed run archive. Expected schema:
//
//	CREATE TABLE banter_runs (
//	    id           BIGSERIAL PRIMARY KEY,
//	    session_hash TEXT        NOT NULL,
//	    score        INTEGER     NOT NULL,
//	    turns        INTEGER     NOT NULL,
//	    outcome      TEXT        NOT NULL,
//	    started_at   TIMESTAMPTZ NOT NULL,
//	    ended_at     TIMESTAMPTZ NOT NULL
//	);
func NewRepository(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &repository{db: db}, nil
}

func (r *repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *repository) InsertRun(ctx context.Context, run *domain.BanterRun) (int64, error) {
	if run == nil {
		return 0, fmt.Errorf("nil banter run payload")
	}
	const query = `
		INSERT INTO banter_runs (session_hash, score, turns, outcome, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		run.SessionHash,
		run.Score,
		run.Turns,
		run.Outcome,
		run.StartedAt,
		run.EndedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert banter run: %w", err)
	}
	return id, nil
}

func (r *repository) RecentRuns(ctx context.Context, limit int) ([]*domain.BanterRun, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, session_hash, score, turns, outcome, started_at, ended_at
		FROM banter_runs
		ORDER BY ended_at DESC, id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.BanterRun
	for rows.Next() {
		var run domain.BanterRun
		if err := rows.Scan(&run.ID, &run.SessionHash, &run.Score, &run.Turns, &run.Outcome, &run.StartedAt, &run.EndedAt); err != nil {
			return nil, fmt.Errorf("scan banter run: %w", err)
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) BestScore(ctx context.Context) (int, error) {
	var best sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(score) FROM banter_runs`).Scan(&best); err != nil {
		return 0, fmt.Errorf("query best score: %w", err)
	}
	if !best.Valid {
		return 0, nil
	}
	return int(best.Int64), nil
}
