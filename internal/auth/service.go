// Package auth signs operators in and out of a console station.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/tokens"
)

var ErrInvalidCredentials = errors.New("invalid operator credentials")

// Operator is the subset of an operator record login needs.
type Operator struct {
	ID           string
	Name         string
	Role         string
	PasswordHash string
}

type OperatorStore interface {
	GetOperator(ctx context.Context, id string) (*Operator, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type Service struct {
	operators OperatorStore
	tokens    *tokens.Manager
	blacklist TokenBlacklist
	hasher    Hasher
}

func NewService(ops OperatorStore, tm *tokens.Manager, bl TokenBlacklist) *Service {
	return &Service{operators: ops, tokens: tm, blacklist: bl, hasher: NewHasher()}
}

type Session struct {
	Token      string    `json:"token"`
	OperatorID string    `json:"operator_id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Station    string    `json:"station"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Login verifies the password and issues an access token bound to station.
// Unknown operators and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, operatorID, password, station string) (*Session, error) {
	op, err := s.operators.GetOperator(ctx, operatorID)
	if err != nil || op == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, op.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Str("operator_id", operatorID).Msg("stored password hash unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(op.PasswordHash) {
		if h, err := s.hasher.Hash(password); err == nil {
			if err := s.operators.UpdatePasswordHash(ctx, op.ID, h); err != nil {
				log.Warn().Err(err).Str("operator_id", op.ID).Msg("password rehash failed")
			}
		}
	}

	tok, err := s.tokens.GenerateAccessToken(op.ID, station, op.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		Token:      tok,
		OperatorID: op.ID,
		Name:       op.Name,
		Role:       op.Role,
		Station:    station,
		ExpiresAt:  time.Now().Add(s.tokens.TTL()).UTC(),
	}, nil
}

// Logout revokes the token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *tokens.Claims) error {
	return s.blacklist.AddToBlacklist(ctx, claims.Station, claims.ID, claims.Remaining(time.Now()))
}

// HashPassword is used when provisioning operators.
func (s *Service) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}
