package ports

import (
	"context"

	"github.com/examstack/examgate/internal/core/domain"
)

// CredentialStore persists the session token and user profile across
// restarts. Implementations must be idempotent, and malformed stored data
// must surface as absence, never as an error: Load returns ("", nil, nil)
// for a corrupted record.
type CredentialStore interface {
	// Load retrieves the persisted credential. A nil error with an empty
	// token means nothing usable is stored.
	Load(ctx context.Context) (token string, user *domain.User, err error)

	// Save writes the credential through. Called after every session
	// mutation that establishes or refreshes the session.
	Save(ctx context.Context, token string, user *domain.User) error

	// Clear erases the persisted credential. Clearing an empty store is a
	// no-op.
	Clear(ctx context.Context) error
}
