package api

import (
	"net/http"
	"sync"

	"github.com/examstack/examgate/internal/core/ports"
)

// TenantHeader scopes every request to a backend tenant. The value is
// fixed per deployment and plays no part in the authorization decision.
const TenantHeader = "X-Tenant-ID"

// DefaultTenantID is used when no tenant is configured.
const DefaultTenantID = "100"

// AuthTransport decorates a RoundTripper with the request authenticator
// behaviour: outgoing requests gain the bearer credential (when one is
// stored) and the tenant header; an unauthorized response erases the
// stored credential and fires the invalidation hook, so the next guarded
// navigation sees an empty session and routes to login.
type AuthTransport struct {
	base     http.RoundTripper
	store    ports.CredentialStore
	tenantID string

	mu             sync.Mutex
	onUnauthorized func()
}

// NewAuthTransport wraps base. A nil base falls back to
// http.DefaultTransport; an empty tenant falls back to DefaultTenantID.
func NewAuthTransport(base http.RoundTripper, store ports.CredentialStore, tenantID string) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	return &AuthTransport{base: base, store: store, tenantID: tenantID}
}

// SetUnauthorizedHook installs the callback fired after an unauthorized
// response has cleared the store. Install during wiring, before traffic.
func (t *AuthTransport) SetUnauthorizedHook(fn func()) {
	t.mu.Lock()
	t.onUnauthorized = fn
	t.mu.Unlock()
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if token, _, err := t.store.Load(req.Context()); err == nil && token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	out.Header.Set(TenantHeader, t.tenantID)

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Local half of logout only: no server round-trip.
		_ = t.store.Clear(req.Context())
		t.mu.Lock()
		fn := t.onUnauthorized
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
	return resp, nil
}
