// SQLite-backed transcript store for single-node installs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// DefaultDirPermissions is used when creating the database directory.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists transcripts in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database named by the
// DSN option and applies migrations.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.New: creating SQLite store", "dsnSet", cfg.DSN != "")
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore.New: creating database directory failed", "error", err, "dir", dir)
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("SQLiteStore.New: opening database failed", "error", err)
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore.New: ping failed", "error", err)
		return nil, fmt.Errorf("pinging SQLite database: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore.New: migrations failed", "error", err)
		return nil, fmt.Errorf("running SQLite migrations: %w", err)
	}
	slog.Info("SQLiteStore.New: store ready", "path", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

// AddMessage inserts one transcript message.
func (s *SQLiteStore) AddMessage(ctx context.Context, sessionID string, msg models.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript_messages (id, session_id, role, content, ts, is_slash_command, command_type, confidence, linked_panel)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, sessionID, string(msg.Role), msg.Content, msg.Timestamp, msg.IsSlashCommand,
		nilIfEmpty(string(msg.CommandType)), nilIfEmpty(msg.Confidence), nilIfEmpty(msg.LinkedPanel))
	if err != nil {
		slog.Error("SQLiteStore.AddMessage: insert failed", "error", err, "sessionID", sessionID, "messageID", msg.ID)
		return fmt.Errorf("inserting transcript message %s: %w", msg.ID, err)
	}
	slog.Debug("SQLiteStore.AddMessage: insert succeeded", "sessionID", sessionID, "messageID", msg.ID)
	return nil
}

// GetMessages returns the session's transcript in append order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, ts, is_slash_command, command_type, confidence, linked_panel
		 FROM transcript_messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore.GetMessages: query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("querying transcript messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows, sessionID)
}

// DeleteMessages removes the session's transcript.
func (s *SQLiteStore) DeleteMessages(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transcript_messages WHERE session_id = ?`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore.DeleteMessages: delete failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("deleting transcript messages: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		slog.Debug("SQLiteStore.DeleteMessages: deleted", "sessionID", sessionID, "count", n)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
