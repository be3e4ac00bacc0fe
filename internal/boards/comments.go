package boards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Service) AddComment(ctx context.Context, cardID uuid.UUID, text string, actor policy.Actor) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Comment text is required")
	}
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{CardID: card.ID, AuthorID: actor.ID, Text: text}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating comment: %w", err))
	}
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, cardID uuid.UUID, actor policy.Actor) ([]models.Comment, error) {
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Where("card_id = ?", card.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing comments: %w", err))
	}
	return comments, nil
}

func (s *Service) UpdateComment(ctx context.Context, commentID uuid.UUID, text string, actor policy.Actor) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Comment text is required")
	}
	comment, err := s.editableComment(ctx, commentID, actor)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.db.WithContext(ctx).Model(comment).Update("text", text).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating comment: %w", err))
	}
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, commentID uuid.UUID, actor policy.Actor) error {
	comment, err := s.editableComment(ctx, commentID, actor)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(comment).Error; err != nil {
		return apperr.Internal(fmt.Errorf("deleting comment: %w", err))
	}
	return nil
}

// editableComment requires the author or a privileged role.
func (s *Service) editableComment(ctx context.Context, commentID uuid.UUID, actor policy.Actor) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Comment")
		}
		return nil, apperr.Internal(fmt.Errorf("loading comment: %w", err))
	}

	subject := actor.On(policy.When(comment.AuthorID == actor.ID, policy.Author))
	if err := policy.Enforce(policy.CommentEditor, subject, "Only the author, CEO or MANAGER can change this comment"); err != nil {
		return nil, err
	}
	return &comment, nil
}
