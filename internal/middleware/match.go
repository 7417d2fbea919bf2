package middleware

// match.go implements the route predicates the request gate is built on.
// Every stage of the gate is registered with an include set and an exclude
// set of path patterns; a stage runs only when the request path is inside
// the include set and outside the exclude set.  Getting these lists right
// is load-bearing: a public route missing from the verifier's exclusions is
// a silent lockout, a protected route wrongly excluded is a silent bypass.

import "strings"

// PathMatcher matches request paths against a fixed set of patterns.  A
// pattern ending in "/*" matches the prefix before the star and everything
// below it; any other pattern matches exactly.
type PathMatcher struct {
    exact    map[string]bool
    prefixes []string
}

// NewPathMatcher compiles the given patterns.  Patterns are evaluated
// per request, so the sets are built once at registration time.
func NewPathMatcher(patterns ...string) *PathMatcher {
    m := &PathMatcher{exact: make(map[string]bool, len(patterns))}
    for _, p := range patterns {
        if strings.HasSuffix(p, "/*") {
            m.prefixes = append(m.prefixes, strings.TrimSuffix(p, "*"))
            continue
        }
        m.exact[p] = true
    }
    return m
}

// Matches reports whether path falls inside the pattern set.
func (m *PathMatcher) Matches(path string) bool {
    if m == nil {
        return false
    }
    if m.exact[path] {
        return true
    }
    for _, p := range m.prefixes {
        if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
            return true
        }
    }
    return false
}

// applies is the shared gate predicate: run the stage when the include set
// matches and the exclude set does not.  A nil include means "all routes".
func applies(include, exclude *PathMatcher, path string) bool {
    if include != nil && !include.Matches(path) {
        return false
    }
    return !exclude.Matches(path)
}
