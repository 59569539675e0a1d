package audit

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"grimoire/internal/platform/models"
)

// Entry records a privileged mutation: who did what to which resource.
// Approvals, role changes and global promotions all leave a row here.
type Entry struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id,omitempty"`
	ActorID        string         `json:"actor_id"`
	Action         string         `json:"action"`
	ResourceType   string         `json:"resource_type"`
	ResourceID     string         `json:"resource_id"`
	Metadata       models.JSONMap `json:"metadata,omitempty"`
	CreatedAt      int64          `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Log is best-effort: a failed audit insert is logged and swallowed so it
// never rolls back the mutation it describes.
func (l *Logger) Log(orgID, actorID, action, resourceType, resourceID string, metadata models.JSONMap) {
	entry := Entry{
		ID:             "aud_" + uuid.NewString(),
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		CreatedAt:      time.Now().Unix(),
	}

	_, err := l.db.Exec(`
		INSERT INTO audit_logs (id, organization_id, actor_id, action, resource_type, resource_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OrganizationID, entry.ActorID, entry.Action, entry.ResourceType, entry.ResourceID, entry.Metadata, entry.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}

func (l *Logger) ListByOrganization(orgID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := l.db.Query(`
		SELECT id, organization_id, actor_id, action, resource_type, resource_id, metadata, created_at
		FROM audit_logs WHERE organization_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
