// PostgreSQL-backed transcript store for shared deployments.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// Connection pool configuration.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists transcripts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database named by the DSN option and
// applies migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.New: creating Postgres store", "dsnSet", cfg.DSN != "")
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("PostgresStore.New: opening database failed", "error", err)
		return nil, fmt.Errorf("opening Postgres database: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore.New: ping failed", "error", err)
		return nil, fmt.Errorf("pinging Postgres database: %w", err)
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore.New: migrations failed", "error", err)
		return nil, fmt.Errorf("running Postgres migrations: %w", err)
	}
	slog.Info("PostgresStore.New: store ready")
	return &PostgresStore{db: db}, nil
}

// AddMessage inserts one transcript message.
func (s *PostgresStore) AddMessage(ctx context.Context, sessionID string, msg models.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript_messages (id, session_id, role, content, ts, is_slash_command, command_type, confidence, linked_panel)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		msg.ID, sessionID, string(msg.Role), msg.Content, msg.Timestamp, msg.IsSlashCommand,
		nilIfEmpty(string(msg.CommandType)), nilIfEmpty(msg.Confidence), nilIfEmpty(msg.LinkedPanel))
	if err != nil {
		slog.Error("PostgresStore.AddMessage: insert failed", "error", err, "sessionID", sessionID, "messageID", msg.ID)
		return fmt.Errorf("inserting transcript message %s: %w", msg.ID, err)
	}
	slog.Debug("PostgresStore.AddMessage: insert succeeded", "sessionID", sessionID, "messageID", msg.ID)
	return nil
}

// GetMessages returns the session's transcript in append order.
func (s *PostgresStore) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, ts, is_slash_command, command_type, confidence, linked_panel
		 FROM transcript_messages WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		slog.Error("PostgresStore.GetMessages: query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("querying transcript messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows, sessionID)
}

// DeleteMessages removes the session's transcript.
func (s *PostgresStore) DeleteMessages(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transcript_messages WHERE session_id = $1`, sessionID)
	if err != nil {
		slog.Error("PostgresStore.DeleteMessages: delete failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("deleting transcript messages: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		slog.Debug("PostgresStore.DeleteMessages: deleted", "sessionID", sessionID, "count", n)
	}
	return nil
}

// Close closes the database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
