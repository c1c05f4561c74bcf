package models

import (
	"time"

	id "guardian/pkg/domain"
)

// SessionState names a position in the authorization state machine:
//
//	INITIATED → AWAITING_LOGIN → LOGIN_ACCEPTED → AWAITING_CONSENT → CONSENTED
//	→ CODE_ISSUED → EXCHANGED | EXPIRED
//
// A rejected consent ends in DENIED instead of CONSENTED. Only AWAITING_LOGIN,
// AWAITING_CONSENT, and CODE_ISSUED are persisted; the others are transient
// and appear only in operation results.
type SessionState string

const (
	StateInitiated       SessionState = "INITIATED"
	StateAwaitingLogin   SessionState = "AWAITING_LOGIN"
	StateLoginAccepted   SessionState = "LOGIN_ACCEPTED"
	StateAwaitingConsent SessionState = "AWAITING_CONSENT"
	StateConsented       SessionState = "CONSENTED"
	StateCodeIssued      SessionState = "CODE_ISSUED"
	StateExchanged       SessionState = "EXCHANGED"
	StateExpired         SessionState = "EXPIRED"
	StateDenied          SessionState = "DENIED"
)

// AuthMethod is an RFC 8176 authentication method reference.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "pwd"
	AuthMethodOTP      AuthMethod = "otp"
	AuthMethodPIN      AuthMethod = "pin"
	AuthMethodSMS      AuthMethod = "sms"
	AuthMethodMFA      AuthMethod = "mfa"
	AuthMethodHardware AuthMethod = "hwk"
	AuthMethodSoftware AuthMethod = "swk"
	AuthMethodFace     AuthMethod = "face"
	AuthMethodFinger   AuthMethod = "fpt"
	AuthMethodOIDC     AuthMethod = "oidc"
)

// Prompt values accepted on the authorize request.
const (
	PromptLogin         = "login"
	PromptConsent       = "consent"
	PromptNone          = "none"
	PromptSelectAccount = "select_account"
)

// CodeChallengeMethod is the PKCE transformation.
type CodeChallengeMethod string

const (
	CodeChallengeS256  CodeChallengeMethod = "S256"
	CodeChallengePlain CodeChallengeMethod = "plain"
)

// IsValid reports whether m is a supported PKCE method.
func (m CodeChallengeMethod) IsValid() bool {
	return m == CodeChallengeS256 || m == CodeChallengePlain
}

// AuthorizeRequest holds the validated parameters of an authorize call. Every
// later phase carries it forward so redirect_uri, state, nonce, and PKCE are
// never re-read from the browser.
type AuthorizeRequest struct {
	ResponseType        string              `json:"response_type"`
	Scopes              []string            `json:"scopes"`
	RedirectURI         string              `json:"redirect_uri"`
	State               string              `json:"state,omitempty"`
	Nonce               string              `json:"nonce,omitempty"`
	CodeChallenge       string              `json:"code_challenge,omitempty"`
	CodeChallengeMethod CodeChallengeMethod `json:"code_challenge_method,omitempty"`
	Prompt              string              `json:"prompt,omitempty"`
	LoginHint           string              `json:"login_hint,omitempty"`
}

// Identity is the verified subject handed to the coordinator by a credential
// collaborator.
type Identity struct {
	UserID      id.UserID    `json:"user_id"`
	IsNewUser   bool         `json:"is_new_user"`
	AuthMethods []AuthMethod `json:"auth_methods"`
	AuthTime    time.Time    `json:"auth_time"`
	// SSOToken is set when the login was proven with an SSO token, so the
	// token can be shared with the client being signed in.
	SSOToken string `json:"sso_token,omitempty"`
}

// AuthorizeSession is an authorize attempt waiting for login.
type AuthorizeSession struct {
	LoginChallenge string           `json:"login_challenge"`
	TenantID       id.TenantID      `json:"tenant_id"`
	ClientID       id.ClientID      `json:"client_id"`
	Request        AuthorizeRequest `json:"request"`
	CreatedAt      time.Time        `json:"created_at"`
	ExpiresAt      time.Time        `json:"expires_at"`
}

// ConsentSession is a logged-in attempt waiting for the user's consent.
// PriorConsent is what the user had already granted this client.
type ConsentSession struct {
	ConsentChallenge string           `json:"consent_challenge"`
	TenantID         id.TenantID      `json:"tenant_id"`
	ClientID         id.ClientID      `json:"client_id"`
	Identity         Identity         `json:"identity"`
	Request          AuthorizeRequest `json:"request"`
	PriorConsent     []string         `json:"prior_consent,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
}

// AuthorizationCode is a single-use exchange credential. Scopes holds the
// consented scope set, never the requested one.
type AuthorizationCode struct {
	Code                string              `json:"code"`
	TenantID            id.TenantID         `json:"tenant_id"`
	ClientID            id.ClientID         `json:"client_id"`
	Identity            Identity            `json:"identity"`
	Scopes              []string            `json:"scopes"`
	RedirectURI         string              `json:"redirect_uri"`
	Nonce               string              `json:"nonce,omitempty"`
	CodeChallenge       string              `json:"code_challenge,omitempty"`
	CodeChallengeMethod CodeChallengeMethod `json:"code_challenge_method,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	ExpiresAt           time.Time           `json:"expires_at"`
}

// IsExpired reports whether the code is past its expiry at now.
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Grant is an exchanged authorization: everything the token issuer needs to
// mint, and nothing the browser can still influence.
type Grant struct {
	TenantID id.TenantID
	ClientID id.ClientID
	Identity Identity
	Scopes   []string
	Nonce    string
}

// Redirect is the browser-facing outcome of a coordinator step.
type Redirect struct {
	State    SessionState
	Location string
	// Challenge is the login or consent challenge when State awaits a UI.
	Challenge string
}
