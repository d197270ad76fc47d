// Package session holds the signed-in actor's credentials. The token
// is injected once at startup (or login) and read through the Store
// interface; no component reads ambient credential state on its own.
package session

import (
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"

	"reserva/internal/models"
)

// ErrNoSession is returned when a token is required but none is set.
var ErrNoSession = errors.New("session: no active session")

// Identity is the decoded actor behind the bearer token.
type Identity struct {
	UserID string
	Name   string
	Role   models.Role
}

// Store is the process-wide session holder. Implementations must be
// safe for concurrent use.
type Store interface {
	// SetToken installs a bearer token and decodes the identity from it.
	SetToken(token string) error
	// Token returns the raw bearer token, or ErrNoSession.
	Token() (string, error)
	// Identity returns the current actor; zero value when logged out.
	Identity() Identity
	// Clear tears the session down (logout).
	Clear()
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	token    string
	identity Identity
}

// NewMemoryStore returns an empty (logged-out) store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetToken installs the token and extracts user id and role from its
// claims. The signature is not verified here: the backend is the
// authority on token validity, this side only needs the claims for
// role-gated display decisions.
func (s *MemoryStore) SetToken(token string) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	identity, err := decodeIdentity(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = identity
	return nil
}

// Token returns the raw bearer token.
func (s *MemoryStore) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoSession
	}
	return s.token, nil
}

// Identity returns the decoded actor.
func (s *MemoryStore) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Clear drops the token and identity.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = Identity{}
}

func decodeIdentity(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, err
	}

	id := Identity{Role: models.RoleUnknown}
	if sub, ok := claims["sub"].(string); ok {
		id.UserID = sub
	}
	if uid, ok := claims["user_id"].(string); ok && id.UserID == "" {
		id.UserID = uid
	}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		id.Role = models.ParseRole(role)
	}
	return id, nil
}

// TokenSource adapts a Store to oauth2.TokenSource so the upstream HTTP
// client picks up token changes without re-wiring.
func TokenSource(s Store) oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	raw, err := ts.store.Token()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}
