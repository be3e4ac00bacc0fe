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

func (s *Service) CreateList(ctx context.Context, boardID uuid.UUID, name string, actor policy.Actor) (*models.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("List name is required")
	}
	if _, err := s.accessibleBoard(ctx, boardID, actor); err != nil {
		return nil, err
	}

	list := &models.List{Name: name, BoardID: boardID, CreatedByID: actor.ID}
	if err := s.db.WithContext(ctx).Create(list).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating list: %w", err))
	}
	return list, nil
}

func (s *Service) UpdateList(ctx context.Context, listID uuid.UUID, name string, actor policy.Actor) (*models.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("List name is required")
	}
	list, err := s.accessibleList(ctx, listID, actor)
	if err != nil {
		return nil, err
	}

	list.Name = name
	if err := s.db.WithContext(ctx).Model(list).Update("name", name).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating list: %w", err))
	}
	return list, nil
}

// DeleteList removes the list with its cards and their comments.
func (s *Service) DeleteList(ctx context.Context, listID uuid.UUID, actor policy.Actor) error {
	list, err := s.accessibleList(ctx, listID, actor)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cardIDs := tx.Model(&models.Card{}).Select("id").Where("list_id = ?", list.ID)
		if err := tx.Where("card_id IN (?)", cardIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", list.ID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		return tx.Delete(list).Error
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting list: %w", err))
	}
	return nil
}

func (s *Service) loadList(ctx context.Context, db *gorm.DB, listID uuid.UUID) (*models.List, error) {
	var list models.List
	if err := db.WithContext(ctx).First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("List")
		}
		return nil, apperr.Internal(fmt.Errorf("loading list: %w", err))
	}
	return &list, nil
}

// accessibleList loads a list, derives its board and checks access.
func (s *Service) accessibleList(ctx context.Context, listID uuid.UUID, actor policy.Actor) (*models.List, error) {
	list, err := s.loadList(ctx, s.db, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleBoard(ctx, list.BoardID, actor); err != nil {
		return nil, err
	}
	return list, nil
}
