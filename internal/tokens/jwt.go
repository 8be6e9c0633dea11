package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenType string

const (
	Access TokenType = "access"
)

const DefaultAccessTTL = 12 * time.Hour

// Claims identify an operator at a console station.
type Claims struct {
	Station    string    `json:"station"`
	OperatorID string    `json:"sub"`
	Role       string    `json:"role,omitempty"`
	TokenType  TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type Manager struct {
	signingKey []byte
	accessTTL  time.Duration
}

func NewManager(signingKey string) *Manager {
	return &Manager{signingKey: []byte(signingKey), accessTTL: DefaultAccessTTL}
}

// WithTTL overrides the access token lifetime.
func (m *Manager) WithTTL(ttl time.Duration) *Manager {
	if ttl > 0 {
		m.accessTTL = ttl
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.accessTTL }

func (m *Manager) GenerateAccessToken(operatorID, station, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Station:    station,
		OperatorID: operatorID,
		Role:       role,
		TokenType:  Access,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(), // jti
			Subject:   operatorID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = "v1"

	return token.SignedString(m.signingKey)
}

func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Remaining is how long the token stays valid; used as the blacklist TTL.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(c.ExpiresAt.Sub(now), 0)
}
