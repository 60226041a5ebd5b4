// Package session manages authenticated session snapshots. A snapshot of the
// user's role, display name and grant is taken once at login and served for
// every later request on that session; grant edits land on the next login,
// except that editing the currently signed-in identity refreshes its live
// sessions in this process.
package session

import (
	"errors"
	"fmt"
	"time"

	"pyra-drive/internal/authz"
	"pyra-drive/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("session expired, please login again")
)

// Claims carries the session key inside the signed token. The snapshot
// itself stays server-side so it can be refreshed in place.
type Claims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and resolves sessions.
type Manager struct {
	sessions *cache.Cache
	secret   []byte
	ttl      time.Duration
	log      *zap.Logger
}

func NewManager(secret string, ttl time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		sessions: cache.New(ttl, 2*ttl),
		secret:   []byte(secret),
		ttl:      ttl,
		log:      log,
	}
}

// SnapshotOf copies the session-relevant fields out of a user row.
func SnapshotOf(u *model.User) authz.Snapshot {
	return authz.Snapshot{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Grant:       u.Permissions,
	}
}

// Issue creates a session for an already-authenticated user and returns the
// signed bearer token.
func (m *Manager) Issue(u *model.User) (string, error) {
	sid := uuid.NewString()
	m.sessions.Set(sid, SnapshotOf(u), cache.DefaultExpiration)

	claims := &Claims{
		SessionID: sid,
		Username:  u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		m.sessions.Delete(sid)
		return "", err
	}
	m.log.Info("session issued", zap.String("username", u.Username))
	return signed, nil
}

// Lookup resolves a bearer token to its session snapshot and session id.
func (m *Manager) Lookup(tokenString string) (authz.Snapshot, string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return authz.Snapshot{}, "", ErrInvalidToken
	}
	v, ok := m.sessions.Get(claims.SessionID)
	if !ok {
		return authz.Snapshot{}, "", ErrExpired
	}
	return v.(authz.Snapshot), claims.SessionID, nil
}

// Refresh replaces the snapshot of one live session in place, keeping its
// remaining lifetime. Returns false when the session is gone.
func (m *Manager) Refresh(sid string, u *model.User) bool {
	_, expiry, ok := m.sessions.GetWithExpiration(sid)
	if !ok {
		return false
	}
	ttl := cache.DefaultExpiration
	if !expiry.IsZero() {
		ttl = time.Until(expiry)
	}
	m.sessions.Set(sid, SnapshotOf(u), ttl)
	return true
}

// Revoke ends a session immediately.
func (m *Manager) Revoke(sid string) {
	m.sessions.Delete(sid)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
