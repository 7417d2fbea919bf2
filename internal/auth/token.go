package auth // package auth implements the signed session token codec

import (
    "crypto/rand" // secure random number generation for per-process keys
    "errors"      // sentinel error values
    "time"        // time utilities for expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Role values carried in the token's role claim.  They mirror the values
// stored in the users table.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// DefaultTTL is the design lifetime of a session token.  Expiry is always
// issuedAt + TTL; there is no sliding renewal.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned by Verify for every failure mode: structural
// malformation, signature mismatch or expiry.  Verification is
// all-or-nothing and callers must not distinguish between the causes.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of a session token.  The subject registered claim
// holds the username; uid and role are custom claims.  A token is never
// mutated after issuance.
type Claims struct {
    UserID uint64 `json:"uid"`
    Role   string `json:"role"`
    jwt.RegisteredClaims
}

// Username returns the subject claim under its domain name.
func (c *Claims) Username() string { return c.Subject }

// Codec issues and verifies HS256-signed session tokens.  It holds the
// signing key and TTL explicitly instead of relying on package-level state,
// so tests can construct codecs with injected keys and shortened lifetimes.
// The key is read-only after construction; concurrent use is safe.
type Codec struct {
    key []byte
    ttl time.Duration
}

// NewCodec builds a Codec from a signing secret and a token TTL.  A
// non-positive ttl falls back to DefaultTTL.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    return &Codec{key: secret, ttl: ttl}
}

// NewRandomKey returns a fresh 32-byte signing key.  Servers started
// without a configured secret use one of these, which means issued tokens
// do not survive a process restart.
func NewRandomKey() []byte {
    key := make([]byte, 32)
    if _, err := rand.Read(key); err != nil {
        panic("auth: cannot read random key: " + err.Error())
    }
    return key
}

// Issue creates a signed token for the given identity.  The expiration is
// always issuedAt + TTL.  Issue has no side effects; it is a pure function
// of its inputs, the current time and the codec's key.
func (c *Codec) Issue(userID uint64, username, role string) (string, error) {
    now := time.Now().UTC()
    claims := &Claims{
        UserID: userID,
        Role:   role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   username,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString(c.key)
}

// Verify checks the signature and expiry of a token and returns its claims.
// Any failure yields ErrInvalidToken; no error from the underlying library
// crosses this boundary.  Verification never consults the session registry,
// so a logged-out token stays cryptographically valid until natural expiry.
func (c *Codec) Verify(token string) (*Claims, error) {
    claims := &Claims{}
    parser := jwt.NewParser(jwt.WithExpirationRequired())
    tok, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC, e.g. alg=none.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return c.key, nil
    })
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// ExtractUserID pulls the uid claim out of a token without verifying it.
// It exists solely so logout can resolve which registry key to clear even
// when the presented token would fail full verification.  Callers must
// never treat a successful extraction as an authentication decision.
func (c *Codec) ExtractUserID(token string) (uint64, bool) {
    claims := &Claims{}
    if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
        return 0, false
    }
    return claims.UserID, claims.UserID != 0
}
