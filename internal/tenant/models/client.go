package models

import (
	"slices"

	authModel "guardian/internal/auth/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

// ClientType separates the tenant's own apps from integrators.
type ClientType string

const (
	ClientTypeFirstParty ClientType = "first_party"
	ClientTypeThirdParty ClientType = "third_party"
)

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Client is an OAuth 2.0 client registration.
//
// Invariants:
//   - ID is the public client_id and is unique within the tenant
//   - RedirectURIs, GrantTypes, and AllowedScopes are non-empty
//   - client_credentials requires a secret
type Client struct {
	ID            id.ClientID           `json:"client_id"`
	TenantID      id.TenantID           `json:"tenant_id"`
	Name          string                `json:"name"`
	SecretHash    string                `json:"-"`
	RedirectURIs  []string              `json:"redirect_uris"`
	GrantTypes    []authModel.GrantType `json:"grant_types"`
	ResponseTypes []string              `json:"response_types"`
	AllowedScopes []string              `json:"allowed_scopes"`
	Type          ClientType            `json:"client_type"`
	SkipConsent   bool                  `json:"skip_consent"`
	Status        ClientStatus          `json:"status"`
}

// Validate checks the registration invariants.
func (c *Client) Validate() error {
	if c.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "client_id cannot be empty")
	}
	if len(c.Name) > 128 {
		return dErrors.New(dErrors.CodeInvariantViolation, "client name must be 128 characters or less")
	}
	if len(c.RedirectURIs) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "redirect_uris cannot be empty")
	}
	if len(c.GrantTypes) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "grant_types cannot be empty")
	}
	for _, g := range c.GrantTypes {
		if !g.IsValid() {
			return dErrors.New(dErrors.CodeInvariantViolation, "invalid grant_type "+string(g))
		}
		if g == authModel.GrantClientCredentials && !c.IsConfidential() {
			return dErrors.New(dErrors.CodeInvariantViolation, "client_credentials requires a client secret")
		}
	}
	if len(c.AllowedScopes) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "allowed_scopes cannot be empty")
	}
	return nil
}

func (c *Client) IsActive() bool {
	return c.Status == "" || c.Status == ClientStatusActive
}

// IsConfidential reports whether the client authenticates with a secret.
func (c *Client) IsConfidential() bool {
	return c.SecretHash != ""
}

// CanUseGrant checks the grant allow-list.
func (c *Client) CanUseGrant(grant authModel.GrantType) bool {
	if grant == authModel.GrantClientCredentials && !c.IsConfidential() {
		return false
	}
	return slices.Contains(c.GrantTypes, grant)
}

// HasRedirectURI matches uri exactly against the registered set.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// SupportsResponseType defaults to "code" when none are registered.
func (c *Client) SupportsResponseType(rt string) bool {
	if len(c.ResponseTypes) == 0 {
		return rt == "code"
	}
	return slices.Contains(c.ResponseTypes, rt)
}

// ShouldSkipConsent is true for first-party clients and clients flagged to
// skip the consent screen.
func (c *Client) ShouldSkipConsent() bool {
	return c.SkipConsent || c.Type == ClientTypeFirstParty
}
