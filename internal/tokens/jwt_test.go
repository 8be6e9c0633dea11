package tokens_test

import (
	"errors"
	"testing"
	"time"

	"github.com/technosupport/ts-console/internal/tokens"
)

func TestTokenGeneration(t *testing.T) {
	mgr := tokens.NewManager("test-secret-key")

	token, err := mgr.GenerateAccessToken("op-17", "station-3", "operator")
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.OperatorID != "op-17" {
		t.Errorf("Expected OperatorID op-17, got %s", claims.OperatorID)
	}
	if claims.Station != "station-3" {
		t.Errorf("Expected Station station-3, got %s", claims.Station)
	}
	if claims.TokenType != tokens.Access {
		t.Errorf("Expected TokenType %s, got %s", tokens.Access, claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("Expected jti to be set")
	}
	if r := claims.Remaining(time.Now()); r <= 0 || r > tokens.DefaultAccessTTL {
		t.Errorf("Unexpected remaining lifetime %v", r)
	}
}

func TestInvalidSignature(t *testing.T) {
	mgr1 := tokens.NewManager("secret-1")
	mgr2 := tokens.NewManager("secret-2")

	token, _ := mgr1.GenerateAccessToken("u1", "s1", "")
	_, err := mgr2.ValidateToken(token)
	if !errors.Is(err, tokens.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := tokens.NewManager("secret").WithTTL(time.Nanosecond)

	token, err := mgr.GenerateAccessToken("u1", "s1", "")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}
