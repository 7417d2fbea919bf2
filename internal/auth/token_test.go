package auth

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func testCodec(t *testing.T, ttl time.Duration) *Codec {
    t.Helper()
    return NewCodec([]byte("test-secret-key"), ttl)
}

func TestCodec_IssueVerifyRoundtrip(t *testing.T) {
    codec := testCodec(t, time.Hour)

    token, err := codec.Issue(42, "alice", RoleAdmin)
    require.NoError(t, err)
    require.NotEmpty(t, token)

    claims, err := codec.Verify(token)
    require.NoError(t, err)
    assert.Equal(t, uint64(42), claims.UserID)
    assert.Equal(t, "alice", claims.Username())
    assert.Equal(t, RoleAdmin, claims.Role)

    // Expiry is always issuedAt + TTL.
    require.NotNil(t, claims.IssuedAt)
    require.NotNil(t, claims.ExpiresAt)
    assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestCodec_VerifyTamperedToken(t *testing.T) {
    codec := testCodec(t, time.Hour)

    token, err := codec.Issue(7, "bob", RoleUser)
    require.NoError(t, err)

    // Flip one character somewhere in the payload.
    tampered := []byte(token)
    mid := len(tampered) / 2
    if tampered[mid] == 'a' {
        tampered[mid] = 'b'
    } else {
        tampered[mid] = 'a'
    }

    _, err = codec.Verify(string(tampered))
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_VerifyExpiredToken(t *testing.T) {
    codec := testCodec(t, time.Nanosecond)

    token, err := codec.Issue(7, "bob", RoleUser)
    require.NoError(t, err)

    time.Sleep(10 * time.Millisecond)
    _, err = codec.Verify(token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_VerifyWrongKey(t *testing.T) {
    issuer := NewCodec([]byte("key-one"), time.Hour)
    verifier := NewCodec([]byte("key-two"), time.Hour)

    token, err := issuer.Issue(1, "alice", RoleUser)
    require.NoError(t, err)

    _, err = verifier.Verify(token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_VerifyGarbage(t *testing.T) {
    codec := testCodec(t, time.Hour)

    for _, tok := range []string{"", "not-a-token", "a.b.c", "Bearer x"} {
        _, err := codec.Verify(tok)
        assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
    }
}

func TestCodec_ExtractUserID(t *testing.T) {
    codec := testCodec(t, time.Hour)

    token, err := codec.Issue(99, "carol", RoleUser)
    require.NoError(t, err)

    uid, ok := codec.ExtractUserID(token)
    require.True(t, ok)
    assert.Equal(t, uint64(99), uid)
}

func TestCodec_ExtractUserID_ExpiredTokenStillResolves(t *testing.T) {
    // Extraction exists so logout can clear the registry key even when the
    // token would no longer verify.
    codec := testCodec(t, time.Nanosecond)

    token, err := codec.Issue(99, "carol", RoleUser)
    require.NoError(t, err)
    time.Sleep(10 * time.Millisecond)

    _, verr := codec.Verify(token)
    require.ErrorIs(t, verr, ErrInvalidToken)

    uid, ok := codec.ExtractUserID(token)
    require.True(t, ok)
    assert.Equal(t, uint64(99), uid)
}

func TestCodec_ExtractUserID_Garbage(t *testing.T) {
    codec := testCodec(t, time.Hour)

    _, ok := codec.ExtractUserID("definitely not a token")
    assert.False(t, ok)
}

func TestNewRandomKey(t *testing.T) {
    k1 := NewRandomKey()
    k2 := NewRandomKey()
    assert.Len(t, k1, 32)
    assert.NotEqual(t, k1, k2)
}
