package models

import (
	"slices"
	"strings"
)

// ScopeOpenID marks an OIDC request; it gates ID token issuance.
const ScopeOpenID = "openid"

// ParseScope splits a space-delimited scope string, dropping blanks and
// duplicates while keeping first-seen order.
func ParseScope(raw string) []string {
	fields := strings.Fields(raw)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// JoinScope renders scopes in the wire format.
func JoinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// HasOpenID reports whether scopes requests an ID token.
func HasOpenID(scopes []string) bool {
	return slices.Contains(scopes, ScopeOpenID)
}

// IntersectScopes returns the members of requested that are in allowed,
// in requested order.
func IntersectScopes(requested, allowed []string) []string {
	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if slices.Contains(allowed, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// UnionScopes returns a followed by the members of b not already in a.
func UnionScopes(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// ScopesSubset reports whether every member of sub is in super.
func ScopesSubset(sub, super []string) bool {
	for _, s := range sub {
		if !slices.Contains(super, s) {
			return false
		}
	}
	return true
}
