// Package database stores detection history in PostgreSQL using pgx.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/tabsniff/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS detections (
	id          UUID PRIMARY KEY,
	file_name   TEXT NOT NULL,
	size_bytes  BIGINT NOT NULL,
	sha256      TEXT NOT NULL,
	label       TEXT NOT NULL,
	candidate   TEXT NOT NULL,
	fallback    BOOLEAN NOT NULL DEFAULT FALSE,
	columns     INTEGER NOT NULL,
	rows        INTEGER NOT NULL,
	preview     JSONB,
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS detections_created_at_idx ON detections (created_at DESC);
`

// HistoryStore implements core.HistoryStore on PostgreSQL.
type HistoryStore struct {
	db DBTX
}

var _ core.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a store on db, usually a *pgxpool.Pool.
func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

// EnsureSchema creates the detections table if it does not exist.
func (s *HistoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertDetection implements core.HistoryStore.
func (s *HistoryStore) InsertDetection(ctx context.Context, rec core.HistoryRecord) error {
	var preview []byte
	if rec.Preview != nil {
		var err error
		if preview, err = json.Marshal(rec.Preview); err != nil {
			return fmt.Errorf("insert detection: encode preview: %w", err)
		}
	}

	_, err := s.db.Exec(ctx, `INSERT INTO detections
		(id, file_name, size_bytes, sha256, label, candidate, fallback, columns, rows,
		 preview, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.FileName, rec.Size, rec.SHA256, rec.Label, rec.Candidate, rec.Fallback,
		rec.Columns, rec.Rows, preview, rec.IPAddress, rec.UserAgent, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	return nil
}

// GetDetection implements core.HistoryStore.
func (s *HistoryStore) GetDetection(ctx context.Context, id uuid.UUID) (core.HistoryRecord, error) {
	row := s.db.QueryRow(ctx, `SELECT id, file_name, size_bytes, sha256, label, candidate,
		fallback, columns, rows, preview, ip_address, user_agent, created_at
		FROM detections WHERE id = $1`, id)

	rec, err := scanDetection(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.HistoryRecord{}, core.ErrDetectionNotFound
	}
	if err != nil {
		return core.HistoryRecord{}, fmt.Errorf("get detection: %w", err)
	}
	return rec, nil
}

// ListDetections implements core.HistoryStore. Previews are not loaded.
func (s *HistoryStore) ListDetections(ctx context.Context, limit int) ([]core.HistoryRecord, error) {
	if limit <= 0 {
		limit = core.DefaultHistoryLimit
	}

	rows, err := s.db.Query(ctx, `SELECT id, file_name, size_bytes, sha256, label, candidate,
		fallback, columns, rows, NULL::jsonb, ip_address, user_agent, created_at
		FROM detections ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	records := make([]core.HistoryRecord, 0, limit)
	for rows.Next() {
		rec, err := scanDetection(rows, false)
		if err != nil {
			return nil, fmt.Errorf("list detections: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	return records, nil
}

// PruneDetections implements core.HistoryStore.
func (s *HistoryStore) PruneDetections(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM detections WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune detections: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanDetection reads one detections row. withPreview decodes the preview
// column.
func scanDetection(row pgx.Row, withPreview bool) (core.HistoryRecord, error) {
	var (
		rec     core.HistoryRecord
		preview []byte
	)
	err := row.Scan(
		&rec.ID, &rec.FileName, &rec.Size, &rec.SHA256, &rec.Label, &rec.Candidate,
		&rec.Fallback, &rec.Columns, &rec.Rows, &preview, &rec.IPAddress, &rec.UserAgent,
		&rec.CreatedAt,
	)
	if err != nil {
		return core.HistoryRecord{}, err
	}

	if withPreview && len(preview) > 0 {
		var t core.Table
		if err := json.Unmarshal(preview, &t); err != nil {
			return core.HistoryRecord{}, fmt.Errorf("decode preview: %w", err)
		}
		rec.Preview = &t
	}
	return rec, nil
}
