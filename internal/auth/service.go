package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = apperr.NotFound("User")
	ErrUserExists         = apperr.Conflict("User already exists")
	ErrInvalidCredentials = apperr.Unauthenticated("Invalid credentials")
	ErrInvalidResetToken  = apperr.Unauthenticated("Invalid or expired reset token")
)

type Service struct {
	db     *gorm.DB
	jwt    *JWTService
	mail   notify.Dispatcher
	links  notify.Links
	logger *slog.Logger
}

func NewService(db *gorm.DB, jwt *JWTService, mail notify.Dispatcher, links notify.Links, logger *slog.Logger) *Service {
	return &Service{db: db, jwt: jwt, mail: mail, links: links, logger: logger}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

type LoginInput struct {
	Email    string
	Password string
	Role     models.Role
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Signup(ctx context.Context, input SignupInput) (*AuthResponse, error) {
	email := models.NormalizeEmail(input.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("checking email: %w", err))
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating user: %w", err))
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "role", user.Role)

	return &AuthResponse{Token: token, User: &user}, nil
}

// Login fails with the same error for an unknown email, a wrong password and
// a role that does not match the stored one.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(input.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(fmt.Errorf("loading user: %w", err))
	}

	if !CheckPassword(input.Password, user.PasswordHash) || user.Role != input.Role {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &AuthResponse{Token: token, User: &user}, nil
}

// ForgotPassword mails a reset link when the address is known. Unknown
// addresses succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return apperr.Internal(fmt.Errorf("loading user: %w", err))
	}

	token, err := s.jwt.GenerateResetToken(user.ID, user.Email)
	if err != nil {
		return apperr.Internal(err)
	}

	msg := notify.PasswordReset(user.Email, user.Name, s.links.ResetPassword(token))
	if err := s.mail.Dispatch(ctx, msg); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	claims, err := s.jwt.ValidateResetToken(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", claims.UserID).
		Update("password_hash", hash)
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("updating password: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrInvalidResetToken
	}

	s.logger.Info("password reset", "user_id", claims.UserID)
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(fmt.Errorf("loading user: %w", err))
	}
	return &user, nil
}
