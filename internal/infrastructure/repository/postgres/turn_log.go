package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// TurnLogRepository is the append-only audit of committed conversation
// turns. It is observational only: the orchestrator's working state lives in
// memory and is never read back from here.
type TurnLogRepository struct {
	db *sql.DB
}

func NewTurnLogRepository(db *sql.DB) *TurnLogRepository {
	return &TurnLogRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TurnLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	language TEXT NOT NULL,
	augmentation TEXT NOT NULL,
	turn_number INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversation_turns_user_created ON conversation_turns(user_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *TurnLogRepository) AppendTurn(ctx context.Context, rec domain.TurnRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversation_turns (id, user_id, question, answer, language, augmentation, turn_number, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, rec.ID, rec.UserID, rec.Question, rec.Answer, rec.Language, string(rec.Augmentation), rec.TurnNumber, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (r *TurnLogRepository) ListRecentTurns(ctx context.Context, userID string, limit int) ([]domain.TurnRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, question, answer, language, augmentation, turn_number, created_at
FROM conversation_turns
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TurnRecord, 0, limit)
	for rows.Next() {
		var rec domain.TurnRecord
		var aug string
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Question,
			&rec.Answer,
			&rec.Language,
			&aug,
			&rec.TurnNumber,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		rec.Augmentation = domain.Augmentation(aug)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// SQL returns newest first; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
