// Package audit records mutating API operations in Postgres so graph
// changes can be traced back to their requests.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graphaura/backend/internal/util"
)

// Entry is one recorded operation.
type Entry struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Record stores an audit entry. Text fields are sanitized since request
// payloads can carry null bytes Postgres rejects.
func Record(ctx context.Context, conn *pgxpool.Pool, action, resourceType, resourceID string, detail map[string]any) error {
	_, err := conn.Exec(ctx, `
		INSERT INTO audit_log (id, action, resource_type, resource_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`,
		util.NewID(),
		util.SanitizePostgresText(action),
		util.SanitizePostgresText(resourceType),
		util.SanitizePostgresText(resourceID),
		detail,
	)
	if err != nil {
		return fmt.Errorf("recording audit entry: %w", err)
	}
	return nil
}

// List returns the most recent audit entries, newest first.
func List(ctx context.Context, conn *pgxpool.Pool, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := conn.Query(ctx, `
		SELECT id, action, resource_type, resource_id, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading audit entries: %w", err)
	}

	return entries, nil
}
