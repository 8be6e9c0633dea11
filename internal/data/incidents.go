package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/technosupport/ts-console/internal/incidents"
)

// IncidentModel is the SQL-backed incidents.Repository.
type IncidentModel struct {
	DB DBTX
}

var _ incidents.Repository = IncidentModel{}

const incidentColumns = `id, domain, type, title, description, location, occurred_at, priority, risk, status`

func scanIncident(row interface{ Scan(...any) error }) (*incidents.Incident, error) {
	var in incidents.Incident
	err := row.Scan(
		&in.ID, &in.Domain, &in.Type, &in.Title, &in.Description,
		&in.Location, &in.OccurredAt, &in.Priority, &in.Risk, &in.Status,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (m IncidentModel) Get(ctx context.Context, id string) (*incidents.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	in, err := scanIncident(m.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, incidents.ErrIncidentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get incident %s: %w", id, err)
	}
	return in, nil
}

// List applies the filter in SQL and orders by priority, highest first.
func (m IncidentModel) List(ctx context.Context, f incidents.Filter) ([]*incidents.Incident, error) {
	q := `SELECT ` + incidentColumns + ` FROM incidents`
	var where []string
	var args []any

	if f.Domain != "" {
		args = append(args, f.Domain)
		where = append(where, fmt.Sprintf("domain = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Risk != "" {
		args = append(args, f.Risk)
		where = append(where, fmt.Sprintf("risk = $%d", len(args)))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY priority DESC, id ASC"

	rows, err := m.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []*incidents.Incident
	for rows.Next() {
		in, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Upsert writes the record, replacing any row with the same id.
func (m IncidentModel) Upsert(ctx context.Context, in *incidents.Incident) error {
	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			domain = excluded.domain, type = excluded.type, title = excluded.title,
			description = excluded.description, location = excluded.location,
			occurred_at = excluded.occurred_at, priority = excluded.priority,
			risk = excluded.risk, status = excluded.status`

	_, err := m.DB.ExecContext(ctx, query,
		in.ID, in.Domain, in.Type, in.Title, in.Description,
		in.Location, in.OccurredAt, in.Priority, in.Risk, in.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert incident %s: %w", in.ID, err)
	}
	return nil
}

// Seed upserts every incident from the catalog.
func (m IncidentModel) Seed(ctx context.Context, c *incidents.Catalog) (int, error) {
	all := c.All()
	for _, in := range all {
		if err := m.Upsert(ctx, in); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}
