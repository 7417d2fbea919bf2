package auth

// session.go is the thin adapter over Redis that tracks the current token
// per user.  The registry exists to support explicit logout bookkeeping:
// login overwrites the entry, logout deletes it, and the entry ages out with
// the same TTL as the token itself.  Token verification deliberately never
// reads this store (see Codec.Verify), so the registry is advisory metadata
// for future extension rather than a hard revocation check.

import (
    "context"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces registry entries; the full key is
// "login:token:<userId>".
const sessionKeyPrefix = "login:token:"

// SessionStore maps a user id to their most recently issued token.  All
// operations are single-key Redis commands, atomic at the store level, so
// no client-side locking is needed.  A nil client turns every operation
// into a no-op so the server keeps working without Redis.
type SessionStore struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewSessionStore builds a SessionStore with the given entry TTL, normally
// equal to the token TTL.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID uint64) string {
    return sessionKeyPrefix + strconv.FormatUint(userID, 10)
}

// Save records token as the user's current session, refreshing the TTL.
// Called on every successful login; a re-login overwrites the previous entry.
func (s *SessionStore) Save(ctx context.Context, userID uint64, token string) error {
    if s.rdb == nil {
        return nil
    }
    return s.rdb.Set(ctx, sessionKey(userID), token, s.ttl).Err()
}

// Get returns the user's current token, or "" when no entry exists.
func (s *SessionStore) Get(ctx context.Context, userID uint64) (string, error) {
    if s.rdb == nil {
        return "", nil
    }
    v, err := s.rdb.Get(ctx, sessionKey(userID)).Result()
    if err == redis.Nil {
        return "", nil
    }
    return v, err
}

// Delete removes the user's registry entry.  Deleting a missing key is not
// an error, which makes logout idempotent.
func (s *SessionStore) Delete(ctx context.Context, userID uint64) error {
    if s.rdb == nil {
        return nil
    }
    return s.rdb.Del(ctx, sessionKey(userID)).Err()
}
