package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// nilIfEmpty maps "" to NULL for nullable columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanMessages drains rows produced by the shared transcript SELECT column
// order: id, role, content, ts, is_slash_command, command_type, confidence,
// linked_panel.
func scanMessages(rows *sql.Rows, sessionID string) ([]models.Message, error) {
	var out []models.Message
	for rows.Next() {
		var m models.Message
		var role string
		var commandType, confidence, linkedPanel sql.NullString
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Timestamp, &m.IsSlashCommand,
			&commandType, &confidence, &linkedPanel); err != nil {
			return nil, fmt.Errorf("scanning transcript row: %w", err)
		}
		m.Role = models.Role(role)
		m.CommandType = models.CommandType(commandType.String)
		m.Confidence = confidence.String
		m.LinkedPanel = linkedPanel.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transcript rows: %w", err)
	}
	slog.Debug("store.scanMessages: rows scanned", "sessionID", sessionID, "count", len(out))
	return out, nil
}
