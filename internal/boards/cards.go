package boards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateCardInput struct {
	ListID        uuid.UUID
	Name          string
	Description   string
	AssignedUsers []uuid.UUID
	DueDate       *time.Time
}

// UpdateCardInput carries only the fields the caller sent.
type UpdateCardInput struct {
	Name          *string
	Description   *string
	ListID        *uuid.UUID
	AssignedUsers []uuid.UUID
	ReplaceUsers  bool
	DueDate       *time.Time
	ClearDueDate  bool
	Status        *models.CardStatus
}

// CardDetails is a card with its comments, oldest first.
type CardDetails struct {
	*models.Card
	Comments []models.Comment `json:"comments"`
}

func (s *Service) CreateCard(ctx context.Context, in CreateCardInput, actor policy.Actor) (*models.Card, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Card name is required")
	}
	if err := directory.RequireDistinct(in.AssignedUsers); err != nil {
		return nil, err
	}

	list, err := s.loadList(ctx, s.db, in.ListID)
	if err != nil {
		return nil, err
	}
	board, err := s.accessibleBoard(ctx, list.BoardID, actor)
	if err != nil {
		return nil, err
	}
	if err := requireMembers(board, in.AssignedUsers); err != nil {
		return nil, err
	}

	card := &models.Card{
		Name:          name,
		Description:   in.Description,
		ListID:        list.ID,
		BoardID:       board.ID,
		CreatedByID:   actor.ID,
		AssignedUsers: models.UUIDSet(in.AssignedUsers),
		DueDate:       in.DueDate,
		Attachments:   []string{},
		Status:        models.CardStatusPending,
	}
	if card.AssignedUsers == nil {
		card.AssignedUsers = models.UUIDSet{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.numberer.Next(ctx, tx, board.ID)
		if err != nil {
			return err
		}
		card.CardNumber = n
		return tx.Create(card).Error
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating card: %w", err))
	}

	if err := s.notifyAssigned(ctx, card, board, card.AssignedUsers); err != nil {
		return nil, err
	}

	s.logger.Info("card created", "card_id", card.ID, "board_id", board.ID, "number", card.CardNumber)
	return card, nil
}

func (s *Service) GetCard(ctx context.Context, cardID uuid.UUID, actor policy.Actor) (*CardDetails, error) {
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := s.db.WithContext(ctx).Where("card_id = ?", card.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading comments: %w", err))
	}
	return &CardDetails{Card: card, Comments: comments}, nil
}

// UpdateCard applies a partial update. Moving is limited to lists of the
// same board. Newly assigned users and, on a status change, all assignees
// are notified.
func (s *Service) UpdateCard(ctx context.Context, cardID uuid.UUID, in UpdateCardInput, actor policy.Actor) (*models.Card, error) {
	card, board, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Card name cannot be empty")
		}
		card.Name = name
	}
	if in.Description != nil {
		card.Description = *in.Description
	}
	switch {
	case in.ClearDueDate:
		card.DueDate = nil
	case in.DueDate != nil:
		card.DueDate = in.DueDate
	}
	if in.ListID != nil && *in.ListID != card.ListID {
		target, err := s.loadList(ctx, s.db, *in.ListID)
		if err != nil {
			return nil, err
		}
		if target.BoardID != board.ID {
			return nil, apperr.Validation("Cards can only move between lists of the same board")
		}
		card.ListID = target.ID
	}

	var added []uuid.UUID
	if in.ReplaceUsers {
		if err := directory.RequireDistinct(in.AssignedUsers); err != nil {
			return nil, err
		}
		if err := requireMembers(board, in.AssignedUsers); err != nil {
			return nil, err
		}
		for _, id := range in.AssignedUsers {
			if !card.AssignedUsers.Contains(id) {
				added = append(added, id)
			}
		}
		card.AssignedUsers = append(models.UUIDSet{}, in.AssignedUsers...)
	}

	previous := card.Status
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("Invalid card status")
		}
		card.Status = *in.Status
	}

	if err := s.db.WithContext(ctx).Save(card).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating card: %w", err))
	}

	if err := s.notifyAssigned(ctx, card, board, added); err != nil {
		return nil, err
	}
	if card.Status != previous {
		if err := s.notifyStatus(ctx, card, previous); err != nil {
			return nil, err
		}
	}
	return card, nil
}

func (s *Service) DeleteCard(ctx context.Context, cardID uuid.UUID, actor policy.Actor) error {
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(card).Error
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting card: %w", err))
	}

	for _, url := range card.Attachments {
		if err := s.store.Delete(ctx, url); err != nil {
			s.logger.Warn("attachment cleanup failed", "card_id", card.ID, "url", url, "error", err)
		}
	}
	return nil
}

// AssignMembers adds users to a card. Any non-member fails the whole call.
func (s *Service) AssignMembers(ctx context.Context, cardID uuid.UUID, userIDs []uuid.UUID, actor policy.Actor) (*models.Card, error) {
	if len(userIDs) == 0 {
		return nil, apperr.Validation("At least one user ID is required")
	}
	if err := directory.RequireDistinct(userIDs); err != nil {
		return nil, err
	}
	card, board, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	if err := requireMembers(board, userIDs); err != nil {
		return nil, err
	}

	var added []uuid.UUID
	card.AssignedUsers, added = card.AssignedUsers.Union(userIDs)
	if len(added) > 0 {
		if err := s.db.WithContext(ctx).Model(card).Select("assigned_users").Updates(card).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("assigning members: %w", err))
		}
	}

	if err := s.notifyAssigned(ctx, card, board, added); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Service) UnassignMembers(ctx context.Context, cardID uuid.UUID, userIDs []uuid.UUID, actor policy.Actor) (*models.Card, error) {
	if len(userIDs) == 0 {
		return nil, apperr.Validation("At least one user ID is required")
	}
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	var removed []uuid.UUID
	card.AssignedUsers, removed = card.AssignedUsers.Without(userIDs)
	if len(removed) > 0 {
		if err := s.db.WithContext(ctx).Model(card).Select("assigned_users").Updates(card).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("unassigning members: %w", err))
		}
	}
	return card, nil
}

// UpdateStatus notifies every assignee when the status actually changes.
func (s *Service) UpdateStatus(ctx context.Context, cardID uuid.UUID, status models.CardStatus, actor policy.Actor) (*models.Card, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid card status")
	}
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	if card.Status == status {
		return card, nil
	}

	previous := card.Status
	card.Status = status
	if err := s.db.WithContext(ctx).Model(card).Update("status", status).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating card status: %w", err))
	}

	if err := s.notifyStatus(ctx, card, previous); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Service) loadCard(ctx context.Context, cardID uuid.UUID) (*models.Card, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).First(&card, "id = ?", cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Card")
		}
		return nil, apperr.Internal(fmt.Errorf("loading card: %w", err))
	}
	return &card, nil
}

// accessibleCard walks card -> list -> board and checks board access.
func (s *Service) accessibleCard(ctx context.Context, cardID uuid.UUID, actor policy.Actor) (*models.Card, *models.Board, error) {
	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.loadList(ctx, s.db, card.ListID)
	if err != nil {
		return nil, nil, err
	}
	board, err := s.accessibleBoard(ctx, list.BoardID, actor)
	if err != nil {
		return nil, nil, err
	}
	return card, board, nil
}

func requireMembers(board *models.Board, userIDs []uuid.UUID) error {
	members := board.MemberIDs()
	for _, id := range userIDs {
		if !members.Contains(id) {
			return apperr.Validation(fmt.Sprintf("User %s is not a member of this board", id))
		}
	}
	return nil
}

func (s *Service) notifyAssigned(ctx context.Context, card *models.Card, board *models.Board, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	users, err := s.users.Resolve(ctx, userIDs)
	if err != nil {
		return err
	}
	msgs := make([]notify.Message, 0, len(users))
	for _, u := range users {
		msgs = append(msgs, notify.CardAssigned(u.Email, u.Name, card.Name, card.CardNumber, board.Name))
	}
	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) notifyStatus(ctx context.Context, card *models.Card, previous models.CardStatus) error {
	if len(card.AssignedUsers) == 0 {
		return nil
	}
	users, err := s.users.Resolve(ctx, card.AssignedUsers)
	if err != nil {
		return err
	}
	msgs := make([]notify.Message, 0, len(users))
	for _, u := range users {
		msgs = append(msgs, notify.CardStatusChanged(u.Email, u.Name, card.Name, card.CardNumber, string(previous), string(card.Status)))
	}
	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
