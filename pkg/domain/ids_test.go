package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "guardian/pkg/domain-errors"
)

// TestParseID_SecurityInvariants validates parsing rules at trust boundaries.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "user\x00admin", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "user\u200Bid", true},
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
		{"Leading separator", "-user", true},

		{"Plain identifier", "tenant1", false},
		{"Email style user id", "jane.doe+work@example.com", false},
		{"UUID", "550e8400-e29b-41d4-a716-446655440000", false},
		{"Underscore", "client_web", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures every id type parses identically.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	for _, input := range []string{"acme", "", "bad id"} {
		_, errUser := ParseUserID(input)
		_, errClient := ParseClientID(input)
		_, errTenant := ParseTenantID(input)

		assert.Equal(t, errUser == nil, errClient == nil, input)
		assert.Equal(t, errUser == nil, errTenant == nil, input)
	}

	tenant, err := ParseTenantID("acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant.String())
	assert.False(t, tenant.IsNil())
	assert.True(t, TenantID("").IsNil())
}
