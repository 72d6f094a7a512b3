package ports

import (
	"context"

	"github.com/examstack/examgate/internal/core/domain"
)

// AuthAPI is the backend's authentication and profile surface as the
// client consumes it. Implementations translate rejected credentials into
// domain.ErrUnauthorized and carry server failure messages in
// *domain.APIError so the session manager can surface them.
type AuthAPI interface {
	// Login exchanges credentials for a token and the user it belongs to.
	Login(ctx context.Context, username, password string) (token string, user *domain.User, err error)

	// Register creates an account. It does not log the user in.
	Register(ctx context.Context, in domain.RegisterInput) error

	// Logout notifies the backend that the session ends. Best effort.
	Logout(ctx context.Context) error

	// FetchProfile returns the profile of the token's owner.
	FetchProfile(ctx context.Context) (*domain.User, error)

	// UpdateProfile applies a partial update and returns the updated user.
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error)

	// ChangePassword rotates the account password.
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}
