// Package reviews stores ratings left on projects and users.
package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoProjects = apperr.Validation("You are not linked to any projects")

type Service struct {
	db    *gorm.DB
	users *directory.Service
}

func NewService(db *gorm.DB, users *directory.Service) *Service {
	return &Service{db: db, users: users}
}

// CreateInput must name exactly one target.
type CreateInput struct {
	Rating    int
	Comment   string
	ProjectID *uuid.UUID
	UserID    *uuid.UUID
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor policy.Actor) (*models.Review, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can create reviews"); err != nil {
		return nil, err
	}
	switch {
	case in.ProjectID == nil && in.UserID == nil:
		return nil, apperr.Validation("Either projectId or userId must be provided")
	case in.ProjectID != nil && in.UserID != nil:
		return nil, apperr.Validation("Provide only one of projectId or userId")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("Rating must be between 1 and 5")
	}

	if in.ProjectID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", *in.ProjectID).Count(&n).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("checking project: %w", err))
		}
		if n == 0 {
			return nil, apperr.NotFound("Project")
		}
	}
	if in.UserID != nil {
		if _, err := s.users.Get(ctx, *in.UserID); err != nil {
			return nil, err
		}
	}

	review := &models.Review{
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
		ProjectID:  in.ProjectID,
		UserID:     in.UserID,
		ReviewerID: actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating review: %w", err))
	}
	return review, nil
}

// ProjectReviews lists reviews of one project, or of every project when
// projectID is nil.
func (s *Service) ProjectReviews(ctx context.Context, projectID *uuid.UUID, actor policy.Actor) ([]models.Review, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can view project reviews"); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("project_id IS NOT NULL")
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	return s.list(q)
}

// UserReviews lists reviews of one user, or of every user when userID is nil.
func (s *Service) UserReviews(ctx context.Context, userID *uuid.UUID, actor policy.Actor) ([]models.Review, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can view user reviews"); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("user_id IS NOT NULL")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	return s.list(q)
}

// MyReviews lists reviews written about the actor.
func (s *Service) MyReviews(ctx context.Context, actor policy.Actor) ([]models.Review, error) {
	return s.list(s.db.WithContext(ctx).Where("user_id = ?", actor.ID))
}

// MyProjectReviews lists reviews of every project the actor created, manages
// or develops on.
func (s *Service) MyProjectReviews(ctx context.Context, actor policy.Actor) ([]models.Review, error) {
	memberOf := s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", actor.ID)

	var projectIDs []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("created_by_id = ? OR project_manager_id = ? OR id IN (?)", actor.ID, actor.ID, memberOf).
		Pluck("id", &projectIDs).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing projects: %w", err))
	}
	if len(projectIDs) == 0 {
		return nil, ErrNoProjects
	}
	return s.list(s.db.WithContext(ctx).Where("project_id IN ?", projectIDs))
}

func (s *Service) list(q *gorm.DB) ([]models.Review, error) {
	var reviews []models.Review
	if err := q.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing reviews: %w", err))
	}
	return reviews, nil
}
