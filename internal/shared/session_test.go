package shared

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) *SessionManager {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", time.Hour)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestSessions(t)
	ctx := context.Background()

	token, err := sm.Create(ctx, Session{UserID: "u1", Name: "Asha", Role: "staff"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	sess, err := sm.Load(ctx, r)
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, "staff", sess.Role)
	require.Equal(t, token, sess.Token)
}

func TestSessionMissingToken(t *testing.T) {
	sm := newTestSessions(t)

	r := httptest.NewRequest("GET", "/", nil)
	_, err := sm.Load(context.Background(), r)
	require.ErrorIs(t, err, ErrNoSession)

	r.Header.Set("Authorization", "Bearer nonsense")
	_, err = sm.Load(context.Background(), r)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestSessions(t)
	ctx := context.Background()

	token, err := sm.Create(ctx, Session{UserID: "u1", Role: "admin"})
	require.NoError(t, err)
	require.NoError(t, sm.Destroy(ctx, token))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	_, err = sm.Load(ctx, r)
	require.ErrorIs(t, err, ErrNoSession)
}
