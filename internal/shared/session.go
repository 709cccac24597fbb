package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session holds the authenticated actor for a request.
type Session struct {
	Token  string `json:"-"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// SessionManager stores bearer-token sessions in Redis.
type SessionManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, prefix string, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, prefix: prefix, ttl: ttl}
}

// ErrNoSession indicates the request carries no valid session token.
var ErrNoSession = errors.New("no active session")

// Create stores a new session and returns its token.
func (sm *SessionManager) Create(ctx context.Context, sess Session) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := sm.client.Set(ctx, sm.key(token), payload, sm.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Load resolves the session for a request's Authorization header.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, ErrNoSession
	}
	payload, err := sm.client.Get(ctx, sm.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	// Sliding expiry keeps active users logged in.
	_ = sm.client.Expire(ctx, sm.key(token), sm.ttl).Err()
	return &sess, nil
}

// Destroy removes a session.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (sm *SessionManager) key(token string) string {
	return fmt.Sprintf("%s:%s", sm.prefix, token)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
