package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore resolves the authenticated user behind a session cookie from
// Redis. The login flow that creates sessions lives in the auth gateway and
// is out of scope here; this store only reads (and refreshes) them.
type SessionStore struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
}

type sessionPayload struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, cookieName string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, cookieName: cookieName, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Middleware extracts the session cookie and stores its id in the request
// context. Resolution against Redis happens lazily per CurrentUser call so
// login/logout elsewhere is picked up without caching.
func (s *SessionStore) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
				r = r.WithContext(ContextWithSessionID(r.Context(), cookie.Value))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser resolves the identity for the session id carried in ctx.
// Returns ErrNoUser when no session id is present or the session expired.
func (s *SessionStore) CurrentUser(ctx context.Context) (Identity, error) {
	if s == nil || s.client == nil {
		return Identity{}, ErrNoUser
	}
	sessionID := SessionIDFromContext(ctx)
	if sessionID == "" {
		return Identity{}, ErrNoUser
	}
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNoUser
	}
	if err != nil {
		return Identity{}, fmt.Errorf("shared: load session: %w", err)
	}
	var payload sessionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Identity{}, fmt.Errorf("shared: decode session: %w", err)
	}
	if payload.UserID == "" {
		return Identity{}, ErrNoUser
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, sessionKey(sessionID), s.ttl).Err()
	}
	return Identity{ID: payload.UserID, Name: payload.UserName}, nil
}

// Put stores a session, used by the auth gateway integration and tests.
func (s *SessionStore) Put(ctx context.Context, sessionID string, identity Identity) error {
	payload, err := json.Marshal(sessionPayload{UserID: identity.ID, UserName: identity.Name})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err()
}
