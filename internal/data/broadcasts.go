package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Broadcast is a sent bulletin as recorded in the broadcasts table.
type Broadcast struct {
	ID         uuid.UUID `json:"id"`
	IncidentID string    `json:"incident_id"`
	Operator   string    `json:"operator"`
	Text       string    `json:"text"`
	ClipIDs    []string  `json:"clip_ids"`
	SentAt     time.Time `json:"sent_at"`
}

type BroadcastModel struct {
	DB DBTX
}

// Insert is idempotent on id; a replayed record is ErrDuplicate.
func (m BroadcastModel) Insert(ctx context.Context, b *Broadcast) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	clips, err := json.Marshal(b.ClipIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO broadcasts (id, incident_id, operator, text, clip_ids, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = m.DB.ExecContext(ctx, query, b.ID.String(), b.IncidentID, b.Operator, b.Text, string(clips), b.SentAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert broadcast: %w", err)
	}
	return nil
}

// ListByIncident returns the most recent broadcasts first.
func (m BroadcastModel) ListByIncident(ctx context.Context, incidentID string, limit int) ([]Broadcast, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, incident_id, operator, text, clip_ids, sent_at
		FROM broadcasts
		WHERE incident_id = $1
		ORDER BY sent_at DESC
		LIMIT $2`

	rows, err := m.DB.QueryContext(ctx, query, incidentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list broadcasts: %w", err)
	}
	defer rows.Close()

	var out []Broadcast
	for rows.Next() {
		var b Broadcast
		var id, clips string
		if err := rows.Scan(&id, &b.IncidentID, &b.Operator, &b.Text, &clips, &b.SentAt); err != nil {
			return nil, err
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("broadcast id %q: %w", id, err)
		}
		if clips != "" {
			if err := json.Unmarshal([]byte(clips), &b.ClipIDs); err != nil {
				return nil, fmt.Errorf("broadcast %s clip ids: %w", id, err)
			}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
