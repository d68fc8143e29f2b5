package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"microforge/pulse/internal/domain"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id        TEXT PRIMARY KEY,
	type      TEXT NOT NULL,
	title     TEXT NOT NULL,
	message   TEXT NOT NULL,
	service   TEXT NOT NULL,
	read      INTEGER NOT NULL DEFAULT 0,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_timestamp ON notifications (timestamp DESC);
`

type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, record domain.NotificationRecord) error {
	const query = `
		INSERT INTO notifications (id, type, title, message, service, read, timestamp)
		VALUES (:id, :type, :title, :message, :service, :read, :timestamp)`

	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.NotificationRecord, error) {
	var record domain.NotificationRecord

	err := s.db.GetContext(ctx, &record,
		`SELECT id, type, title, message, service, read, timestamp FROM notifications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotificationRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NotificationRecord{}, fmt.Errorf("failed to select notification: %w", err)
	}

	return record, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.NotificationRecord, error) {
	records := make([]domain.NotificationRecord, 0, limit)

	err := s.db.SelectContext(ctx, &records,
		`SELECT id, type, title, message, service, read, timestamp
		 FROM notifications ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return records, nil
}

// MarkRead is an unconditional single-row update: marking an already read
// record is not an error.
func (s *SQLiteStore) MarkRead(ctx context.Context, id string) (domain.NotificationRecord, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ?`, id); err != nil {
		return domain.NotificationRecord{}, fmt.Errorf("failed to update notification: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
