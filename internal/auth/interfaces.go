package auth

import (
	"context"

	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/google/uuid"
)

// Authenticator is what the HTTP layer needs from the identity service.
type Authenticator interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenService is what the auth middleware needs.
type TokenService interface {
	ValidateToken(tokenString string) (*Claims, error)
}

var (
	_ Authenticator = (*Service)(nil)
	_ TokenService  = (*JWTService)(nil)
)
