package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists session histories in PostgreSQL. Each session is a
// single row holding the full history as JSONB; Persist upserts the row so
// the stored state always reflects the last completed turn.
//
// PostgresStore is safe for concurrent use by multiple goroutines.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Resolve implements Store.
func (s *PostgresStore) Resolve(ctx context.Context, id string) (string, []Message, error) {
	if id == "" {
		return uuid.NewString(), nil, nil
	}

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT history FROM sessions WHERE id = $1`, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return id, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("querying session %s: %w", id, err)
	}

	var history []Message
	if err := json.Unmarshal(raw, &history); err != nil {
		return "", nil, fmt.Errorf("decoding history for session %s: %w", id, err)
	}

	s.logger.Debug("resolved session", "id", id, "messages", len(history))
	return id, history, nil
}

// Persist implements Store.
func (s *PostgresStore) Persist(ctx context.Context, id string, history []Message) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding history for session %s: %w", id, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, history, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE
		 SET history = EXCLUDED.history, updated_at = now()`,
		id, raw,
	)
	if err != nil {
		return fmt.Errorf("persisting session %s: %w", id, err)
	}

	s.logger.Debug("persisted session", "id", id, "messages", len(history))
	return nil
}

// List implements Lister, ordered by most recently updated.
func (s *PostgresStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, jsonb_array_length(history), updated_at
		 FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Messages, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}
	return infos, nil
}
