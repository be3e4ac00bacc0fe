// Package sprints manages the sprints nested under a project.
package sprints

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidWindow = apperr.Validation("End time must be after start time")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Status      models.SprintStatus
}

type UpdateInput struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Status      *models.SprintStatus
}

func (s *Service) Create(ctx context.Context, projectID uuid.UUID, in CreateInput, actor policy.Actor) (*models.Sprint, error) {
	if _, err := s.authorize(ctx, projectID, actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Sprint name is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, ErrInvalidWindow
	}
	status := in.Status
	if status == "" {
		status = models.SprintStatusToDo
	}
	if !status.Valid() {
		return nil, apperr.Validation("Invalid sprint status")
	}

	sprint := &models.Sprint{
		Name:        name,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Status:      status,
		ProjectID:   projectID,
		CreatedByID: actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(sprint).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating sprint: %w", err))
	}
	return sprint, nil
}

// FindAllByProject is open to any authenticated caller.
func (s *Service) FindAllByProject(ctx context.Context, projectID uuid.UUID) ([]models.Sprint, error) {
	var sprints []models.Sprint
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("start_time ASC").Find(&sprints).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing sprints: %w", err))
	}
	return sprints, nil
}

// Update checks the time window only when both ends are supplied.
func (s *Service) Update(ctx context.Context, projectID, sprintID uuid.UUID, in UpdateInput, actor policy.Actor) (*models.Sprint, error) {
	if _, err := s.authorize(ctx, projectID, actor); err != nil {
		return nil, err
	}
	sprint, err := s.load(ctx, projectID, sprintID)
	if err != nil {
		return nil, err
	}

	if in.StartTime != nil && in.EndTime != nil && !in.EndTime.After(*in.StartTime) {
		return nil, ErrInvalidWindow
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Sprint name cannot be empty")
		}
		updates["name"] = name
		sprint.Name = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
		sprint.Description = *in.Description
	}
	if in.StartTime != nil {
		updates["start_time"] = *in.StartTime
		sprint.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		updates["end_time"] = *in.EndTime
		sprint.EndTime = *in.EndTime
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("Invalid sprint status")
		}
		updates["status"] = *in.Status
		sprint.Status = *in.Status
	}
	if len(updates) == 0 {
		return sprint, nil
	}

	if err := s.db.WithContext(ctx).Model(sprint).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating sprint: %w", err))
	}
	return sprint, nil
}

func (s *Service) Delete(ctx context.Context, projectID, sprintID uuid.UUID, actor policy.Actor) error {
	if _, err := s.authorize(ctx, projectID, actor); err != nil {
		return err
	}
	sprint, err := s.load(ctx, projectID, sprintID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(sprint).Error; err != nil {
		return apperr.Internal(fmt.Errorf("deleting sprint: %w", err))
	}
	return nil
}

// authorize allows CEO, MANAGER and the project's own manager.
func (s *Service) authorize(ctx context.Context, projectID uuid.UUID, actor policy.Actor) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Project")
		}
		return nil, apperr.Internal(fmt.Errorf("loading project: %w", err))
	}

	managesIt := project.ProjectManagerID != nil && *project.ProjectManagerID == actor.ID
	subject := actor.On(policy.When(managesIt, policy.ProjectManager))
	if err := policy.Enforce(policy.SprintAdmin, subject, "Only CEO, MANAGER or the project manager can manage sprints"); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Service) load(ctx context.Context, projectID, sprintID uuid.UUID) (*models.Sprint, error) {
	var sprint models.Sprint
	err := s.db.WithContext(ctx).First(&sprint, "id = ? AND project_id = ?", sprintID, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Sprint")
		}
		return nil, apperr.Internal(fmt.Errorf("loading sprint: %w", err))
	}
	return &sprint, nil
}
