// Package tenant holds the tenant and client registrations the identity
// provider serves, loaded at startup from a seed file.
package tenant

import (
	"context"
	"fmt"
	"sync"

	authModel "guardian/internal/auth/models"
	"guardian/internal/tenant/models"
	"guardian/internal/tenant/secrets"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
)

type clientKey struct {
	tenantID id.TenantID
	clientID id.ClientID
}

// Registry is the in-memory tenant and client catalogue. It is written once
// at startup and read on every request.
type Registry struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	clients map[clientKey]*models.Client
}

func NewRegistry() *Registry {
	return &Registry{
		tenants: make(map[id.TenantID]*models.Tenant),
		clients: make(map[clientKey]*models.Client),
	}
}

// PutTenant registers or replaces a tenant. Zero token lifetimes are filled
// from the defaults.
func (r *Registry) PutTenant(t *models.Tenant) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cp := *t
	cp.Tokens = t.Tokens.WithDefaults()
	if cp.ConsentPageURI == "" {
		cp.ConsentPageURI = cp.LoginPageURI
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = &cp
	return nil
}

// PutClient registers or replaces a client. The owning tenant must exist.
func (r *Registry) PutClient(c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[c.TenantID]; !ok {
		return dErrors.New(dErrors.CodeInvariantViolation, "client "+c.ID.String()+" references unknown tenant "+c.TenantID.String())
	}
	cp := *c
	r.clients[clientKey{c.TenantID, c.ID}] = &cp
	return nil
}

// Tenant returns an active tenant.
func (r *Registry) Tenant(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	r.mu.RLock()
	t, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, sentinel.ErrNotFound)
	}
	if !t.IsActive() {
		return nil, fmt.Errorf("tenant %s is inactive: %w", tenantID, sentinel.ErrInvalidState)
	}
	return t, nil
}

// Tenants lists every registered tenant.
func (r *Registry) Tenants() []*models.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out
}

// Get returns an active client of an active tenant.
func (r *Registry) Get(ctx context.Context, tenantID id.TenantID, clientID id.ClientID) (*models.Client, error) {
	if _, err := r.Tenant(ctx, tenantID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	c, ok := r.clients[clientKey{tenantID, clientID}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, sentinel.ErrNotFound)
	}
	if !c.IsActive() {
		return nil, fmt.Errorf("client %s is inactive: %w", clientID, sentinel.ErrInvalidState)
	}
	return c, nil
}

// Resolve narrows requested to the scopes the client may be granted.
func (r *Registry) Resolve(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, requested []string) ([]string, error) {
	c, err := r.Get(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	return authModel.IntersectScopes(requested, c.AllowedScopes), nil
}

// Authenticate checks a confidential client's secret. Unknown clients and
// wrong secrets are indistinguishable to the caller.
func (r *Registry) Authenticate(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, secret string) (*models.Client, error) {
	c, err := r.Get(ctx, tenantID, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid client credentials")
	}
	if !c.IsConfidential() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "client is not confidential")
	}
	if err := secrets.Verify(secret, c.SecretHash); err != nil {
		return nil, err
	}
	return c, nil
}
