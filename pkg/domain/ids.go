package domain

import (
	"regexp"

	dErrors "guardian/pkg/domain-errors"
)

// Typed identifiers. Tenants, clients, and users are named by opaque strings
// chosen by operators or upstream user services, so these wrap string rather
// than a UUID. Distinct types keep a client id from being passed where a user
// id is expected.
type (
	TenantID string
	ClientID string
	UserID   string
)

const maxIDLength = 128

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@+\-]*$`)

func parseID(kind, raw string) (string, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(raw) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	if !idPattern.MatchString(raw) {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" has invalid characters")
	}
	return raw, nil
}

// ParseTenantID validates a tenant identifier taken from a route or config.
func ParseTenantID(raw string) (TenantID, error) {
	v, err := parseID("tenant id", raw)
	return TenantID(v), err
}

// ParseClientID validates an OAuth client_id.
func ParseClientID(raw string) (ClientID, error) {
	v, err := parseID("client id", raw)
	return ClientID(v), err
}

// ParseUserID validates a user identifier returned by the user service.
func ParseUserID(raw string) (UserID, error) {
	v, err := parseID("user id", raw)
	return UserID(v), err
}

func (id TenantID) String() string { return string(id) }
func (id ClientID) String() string { return string(id) }
func (id UserID) String() string   { return string(id) }

func (id TenantID) IsNil() bool { return id == "" }
func (id ClientID) IsNil() bool { return id == "" }
func (id UserID) IsNil() bool   { return id == "" }
