package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-console/internal/tokens"
)

type memOperators struct {
	ops      map[string]*Operator
	rehashes int
}

func (m *memOperators) GetOperator(_ context.Context, id string) (*Operator, error) {
	op, ok := m.ops[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return op, nil
}

func (m *memOperators) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.rehashes++
	m.ops[id].PasswordHash = hash
	return nil
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestService(t *testing.T) (*Service, *memOperators, *tokens.Manager) {
	t.Helper()
	hash, err := NewHasher().Hash("s3cret")
	require.NoError(t, err)

	ops := &memOperators{ops: map[string]*Operator{
		"op-1": {ID: "op-1", Name: "김관제", Role: "operator", PasswordHash: hash},
	}}
	tm := tokens.NewManager("test-key")
	return NewService(ops, tm, NewRedisBlacklist(setupTestRedis(t))), ops, tm
}

func TestLogin(t *testing.T) {
	svc, ops, tm := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "op-1", "s3cret", "station-3")
	require.NoError(t, err)
	assert.Equal(t, "김관제", sess.Name)
	assert.Equal(t, 0, ops.rehashes)

	claims, err := tm.ValidateToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.OperatorID)
	assert.Equal(t, "station-3", claims.Station)
	assert.Equal(t, "operator", claims.Role)

	_, err = svc.Login(ctx, "op-1", "wrong", "station-3")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "s3cret", "station-3")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RehashesOutdatedParams(t *testing.T) {
	svc, ops, _ := newTestService(t)
	old := Hasher{Params: DefaultParams}
	old.Params.Memory = 16 * 1024
	hash, err := old.Hash("s3cret")
	require.NoError(t, err)
	ops.ops["op-1"].PasswordHash = hash

	_, err = svc.Login(context.Background(), "op-1", "s3cret", "station-3")
	require.NoError(t, err)
	assert.Equal(t, 1, ops.rehashes)
	assert.False(t, NewHasher().NeedsRehash(ops.ops["op-1"].PasswordHash))
}

func TestLogout_Blacklists(t *testing.T) {
	svc, _, tm := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "op-1", "s3cret", "station-3")
	require.NoError(t, err)
	claims, err := tm.ValidateToken(sess.Token)
	require.NoError(t, err)

	revoked, err := svc.blacklist.IsBlacklisted(ctx, "station-3", claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err = svc.blacklist.IsBlacklisted(ctx, "station-3", claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestBlacklist_ZeroTTLIgnored(t *testing.T) {
	bl := NewRedisBlacklist(setupTestRedis(t))
	require.NoError(t, bl.AddToBlacklist(context.Background(), "s", "jti", 0))
	revoked, err := bl.IsBlacklisted(context.Background(), "s", "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
