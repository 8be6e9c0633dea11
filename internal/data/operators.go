package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/technosupport/ts-console/internal/auth"
)

type OperatorModel struct {
	DB DBTX
}

var _ auth.OperatorStore = OperatorModel{}

// Create inserts a new operator; an existing id is ErrDuplicate.
func (m OperatorModel) Create(ctx context.Context, op *auth.Operator) error {
	query := `
		INSERT INTO operators (id, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := m.DB.ExecContext(ctx, query, op.ID, op.Name, op.Role, op.PasswordHash, time.Now().UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create operator %s: %w", op.ID, err)
	}
	return nil
}

func (m OperatorModel) GetOperator(ctx context.Context, id string) (*auth.Operator, error) {
	query := `SELECT id, name, role, password_hash FROM operators WHERE id = $1`

	var op auth.Operator
	err := m.DB.QueryRowContext(ctx, query, id).Scan(&op.ID, &op.Name, &op.Role, &op.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (m OperatorModel) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := m.DB.ExecContext(ctx, `UPDATE operators SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
