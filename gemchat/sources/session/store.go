package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// TTL matches the 7-day session cookie lifetime.
const TTL = 7 * 24 * time.Hour

// Identity is the anonymous guest user attached to a session. It is
// immutable; handlers receive it by value through the request context.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Provider string `json:"provider"`
}

// Store keeps minted identities in memory, keyed by opaque session id,
// expiring them together with the cookie.
type Store struct {
	cache *cache.Cache
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: cache.New(ttl, time.Hour),
	}
}

// Mint provisions a fresh guest identity under a new session id.
func (s *Store) Mint() (string, Identity) {
	identity := Identity{
		ID:       uuid.New().String(),
		Username: "Guest",
		Provider: "guest",
	}
	sessionID := uuid.New().String()
	s.cache.Set(sessionID, identity, cache.DefaultExpiration)
	return sessionID, identity
}

func (s *Store) Get(sessionID string) (Identity, bool) {
	if x, found := s.cache.Get(sessionID); found {
		return x.(Identity), true
	}
	return Identity{}, false
}

func (s *Store) Delete(sessionID string) {
	s.cache.Delete(sessionID)
}
