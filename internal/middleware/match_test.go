package middleware

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestPathMatcher_Exact(t *testing.T) {
    m := NewPathMatcher("/api/admin/users/login", "/favicon.ico")

    assert.True(t, m.Matches("/api/admin/users/login"))
    assert.True(t, m.Matches("/favicon.ico"))
    assert.False(t, m.Matches("/api/admin/users/login/extra"))
    assert.False(t, m.Matches("/api/admin/users"))
}

func TestPathMatcher_Prefix(t *testing.T) {
    m := NewPathMatcher("/api/admin/init/*")

    assert.True(t, m.Matches("/api/admin/init/reset-admin"))
    assert.True(t, m.Matches("/api/admin/init"))
    assert.False(t, m.Matches("/api/admin/initialize")) // prefix must end at the slash
    assert.False(t, m.Matches("/api/admin/users/login"))
}

func TestPathMatcher_Nil(t *testing.T) {
    var m *PathMatcher
    assert.False(t, m.Matches("/anything"))
}

func TestApplies(t *testing.T) {
    include := NewPathMatcher("/api/*")
    exclude := NewPathMatcher("/api/admin/users/login")

    assert.True(t, applies(include, exclude, "/api/admin/upload/image"))
    assert.False(t, applies(include, exclude, "/api/admin/users/login"))
    assert.False(t, applies(include, exclude, "/about"))

    // nil include means every route, minus exclusions.
    assert.True(t, applies(nil, exclude, "/about"))
    assert.False(t, applies(nil, exclude, "/api/admin/users/login"))
}
