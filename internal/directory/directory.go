// Package directory resolves user ids and roles for the other services.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDuplicateIDs = apperr.Validation("Duplicate user IDs are not allowed")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(fmt.Errorf("loading user: %w", err))
	}
	return &user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(fmt.Errorf("loading user by email: %w", err))
	}
	return &user, nil
}

// Resolve loads every id and fails if any of them is unknown. The result
// follows the order of ids.
func (s *Service) Resolve(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("resolving users: %w", err))
	}

	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("User %s", id))
		}
		out = append(out, u)
	}
	return out, nil
}

// ByRoles lists every user holding one of roles.
func (s *Service) ByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("role IN ?", roles).Order("name").Find(&users).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing users by role: %w", err))
	}
	return users, nil
}

// RequireDistinct rejects a batch that names the same id twice.
func RequireDistinct(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return ErrDuplicateIDs
		}
		seen[id] = struct{}{}
	}
	return nil
}
