package httptransport

import (
	"context"
	"crypto/subtle"

	"guardian/internal/auth/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

// LoginAssertion is what the login or consent UI reports about the user. The
// user is identified by a session token the browser already holds (SSO token
// first, refresh token otherwise), or by a user id that a trusted back end
// vouches for with the admin token.
type LoginAssertion struct {
	SSOToken     string
	RefreshToken string
	UserID       string
	AuthMethods  []string
	IsNewUser    bool
	AdminToken   string
}

// CredentialVerifier turns a login assertion into a verified identity.
// Password checks and user storage live behind it, outside this service.
type CredentialVerifier interface {
	Verify(ctx context.Context, tenantID id.TenantID, a LoginAssertion) (models.Identity, error)
}

// SessionValidator resolves the user behind an SSO or refresh token.
type SessionValidator interface {
	ValidateSession(ctx context.Context, tenantID id.TenantID, ssoToken, refreshToken string) (models.Identity, error)
}

// TrustedBackend accepts token-backed sessions and admin-asserted users.
type TrustedBackend struct {
	sessions   SessionValidator
	adminToken string
}

func NewTrustedBackend(sessions SessionValidator, adminToken string) *TrustedBackend {
	return &TrustedBackend{sessions: sessions, adminToken: adminToken}
}

var errUnverifiedUser = dErrors.New(dErrors.CodeUnauthorized, "user could not be verified")

// Verify ignores the asserted auth methods for token-backed sessions; those
// come from the stored token.
func (v *TrustedBackend) Verify(ctx context.Context, tenantID id.TenantID, a LoginAssertion) (models.Identity, error) {
	if a.SSOToken != "" || a.RefreshToken != "" {
		return v.sessions.ValidateSession(ctx, tenantID, a.SSOToken, a.RefreshToken)
	}

	if v.adminToken == "" || subtle.ConstantTimeCompare([]byte(a.AdminToken), []byte(v.adminToken)) != 1 {
		return models.Identity{}, errUnverifiedUser
	}
	methods, err := parseAuthMethods(a.AuthMethods)
	if err != nil {
		return models.Identity{}, err
	}
	userID, err := id.ParseUserID(a.UserID)
	if err != nil {
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "user_id is invalid")
	}
	return models.Identity{UserID: userID, AuthMethods: methods, IsNewUser: a.IsNewUser}, nil
}

var knownAuthMethods = map[models.AuthMethod]struct{}{
	models.AuthMethodPassword: {},
	models.AuthMethodOTP:      {},
	models.AuthMethodPIN:      {},
	models.AuthMethodSMS:      {},
	models.AuthMethodMFA:      {},
	models.AuthMethodHardware: {},
	models.AuthMethodSoftware: {},
	models.AuthMethodFace:     {},
	models.AuthMethodFinger:   {},
	models.AuthMethodOIDC:     {},
}

func parseAuthMethods(raw []string) ([]models.AuthMethod, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]models.AuthMethod, 0, len(raw))
	for _, r := range raw {
		m := models.AuthMethod(r)
		if _, ok := knownAuthMethods[m]; !ok {
			return nil, dErrors.New(dErrors.CodeInvalidRequest, "unknown auth method "+r)
		}
		out = append(out, m)
	}
	return out, nil
}
