package auth

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestSessionKey(t *testing.T) {
    assert.Equal(t, "login:token:42", sessionKey(42))
}

func TestSessionStore_NilClientIsNoOp(t *testing.T) {
    // Without Redis the registry degrades to a no-op so login and logout
    // keep working; only revocation bookkeeping is lost.
    s := NewSessionStore(nil, time.Hour)
    ctx := context.Background()

    assert.NoError(t, s.Save(ctx, 1, "token"))

    v, err := s.Get(ctx, 1)
    assert.NoError(t, err)
    assert.Empty(t, v)

    assert.NoError(t, s.Delete(ctx, 1))
}
