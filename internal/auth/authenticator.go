package auth

import (
	"context"

	"github.com/splitr-app/splitr/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The abstraction allows swapping auth methods (password, OAuth, passkeys)
// without touching the service layer.
type Authenticator interface {
	// Register creates a new account. The credential format depends on
	// the implementation (a password here).
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the
	// implementation's requirements before any storage work happens.
	ValidateCredential(credential string) error
}
