// Package boards is the Kanban engine: boards, token invitations, lists,
// numbered cards, comments and attachments.
package boards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/internal/storage"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvitationTTL is how long an invitation link stays valid.
const InvitationTTL = 24 * time.Hour

var ErrInvalidInvitation = apperr.Validation("Invalid or expired invitation token")

type Service struct {
	db       *gorm.DB
	users    *directory.Service
	mail     notify.Dispatcher
	links    notify.Links
	store    storage.ObjectStore
	numberer Numberer
	limits   config.StorageConfig
	logger   *slog.Logger
}

type Deps struct {
	DB       *gorm.DB
	Users    *directory.Service
	Mail     notify.Dispatcher
	Links    notify.Links
	Store    storage.ObjectStore
	Numberer Numberer
	Limits   config.StorageConfig
	Logger   *slog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		db:       d.DB,
		users:    d.Users,
		mail:     d.Mail,
		links:    d.Links,
		store:    d.Store,
		numberer: d.Numberer,
		limits:   d.Limits,
		logger:   d.Logger,
	}
}

// BoardDetails is a board with its member and invited id sets.
type BoardDetails struct {
	*models.Board
	Members      models.UUIDSet `json:"members"`
	InvitedUsers models.UUIDSet `json:"invited_users"`
}

func details(b *models.Board) *BoardDetails {
	return &BoardDetails{Board: b, Members: b.MemberIDs(), InvitedUsers: b.InvitedIDs()}
}

// InviteResult reports what addUsers did for each requested id.
type InviteResult struct {
	Invited []uuid.UUID `json:"invited"`
	Skipped []uuid.UUID `json:"skipped"`
}

func (s *Service) Create(ctx context.Context, name string, actor policy.Actor) (*BoardDetails, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or MANAGER can create boards"); err != nil {
		return nil, err
	}

	var board *models.Board
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		board, err = createBoard(tx, name, actor.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating board: %w", err))
	}

	s.logger.Info("board created", "board_id", board.ID, "by", actor.ID)
	return details(board), nil
}

func createBoard(tx *gorm.DB, name string, creatorID uuid.UUID) (*models.Board, error) {
	board := &models.Board{
		Name:        name,
		CreatedByID: creatorID,
		Members:     []models.BoardMember{{UserID: creatorID, JoinedAt: time.Now()}},
	}
	if err := tx.Create(board).Error; err != nil {
		return nil, err
	}
	return board, nil
}

// AddUsers invites users to a board. Members and users already invited are
// skipped; every other user gets a fresh token and a mail.
func (s *Service) AddUsers(ctx context.Context, boardID uuid.UUID, userIDs []uuid.UUID, actor policy.Actor) (*InviteResult, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or MANAGER can add users to boards"); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, apperr.Validation("At least one user ID is required")
	}
	if err := directory.RequireDistinct(userIDs); err != nil {
		return nil, err
	}

	board, err := s.loadBoard(ctx, s.db, boardID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Resolve(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	var (
		result *InviteResult
		msgs   []notify.Message
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, msgs, err = s.invite(tx, board, users)
		return err
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("inviting users: %w", err))
	}

	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("board invitations sent", "board_id", board.ID, "invited", len(result.Invited), "skipped", len(result.Skipped))
	return result, nil
}

// AcceptInvitation is reached from the mailed link and needs no session.
// Wrong and expired tokens fail the same way.
func (s *Service) AcceptInvitation(ctx context.Context, boardID uuid.UUID, token string) (*BoardDetails, error) {
	var inv models.BoardInvitation
	err := s.db.WithContext(ctx).
		Where("board_id = ? AND token = ? AND expires_at > ?", boardID, token, time.Now()).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInvitation
		}
		return nil, apperr.Internal(fmt.Errorf("loading invitation: %w", err))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := addMembers(tx, boardID, []uuid.UUID{inv.UserID}); err != nil {
			return err
		}
		return tx.Where("board_id = ? AND user_id = ?", boardID, inv.UserID).
			Delete(&models.BoardInvitation{}).Error
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("accepting invitation: %w", err))
	}

	board, err := s.loadBoard(ctx, s.db, boardID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation accepted", "board_id", boardID, "user_id", inv.UserID)
	return details(board), nil
}

// MyBoards lists boards the actor is a member of.
func (s *Service) MyBoards(ctx context.Context, actor policy.Actor) ([]BoardDetails, error) {
	var boards []models.Board
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Invitations").
		Where("id IN (?)", s.db.Model(&models.BoardMember{}).Select("board_id").Where("user_id = ?", actor.ID)).
		Order("created_at DESC").
		Find(&boards).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing boards: %w", err))
	}

	out := make([]BoardDetails, 0, len(boards))
	for i := range boards {
		out = append(out, *details(&boards[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, boardID uuid.UUID, actor policy.Actor) (*BoardDetails, error) {
	board, err := s.accessibleBoard(ctx, boardID, actor)
	if err != nil {
		return nil, err
	}
	return details(board), nil
}

// Members returns the user records of a board's members.
func (s *Service) Members(ctx context.Context, boardID uuid.UUID, actor policy.Actor) ([]models.User, error) {
	board, err := s.accessibleBoard(ctx, boardID, actor)
	if err != nil {
		return nil, err
	}
	return s.users.Resolve(ctx, board.MemberIDs())
}

// Lists returns a board's lists with their cards in card-number order.
func (s *Service) Lists(ctx context.Context, boardID uuid.UUID, actor policy.Actor) ([]models.List, error) {
	if _, err := s.accessibleBoard(ctx, boardID, actor); err != nil {
		return nil, err
	}

	var lists []models.List
	err := s.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("card_number ASC") }).
		Where("board_id = ?", boardID).
		Order("created_at ASC").
		Find(&lists).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing lists: %w", err))
	}
	return lists, nil
}

// ProvisionBoard creates a board inside the caller's transaction and invites
// invitees. The returned mail must be dispatched after commit.
func (s *Service) ProvisionBoard(ctx context.Context, tx *gorm.DB, name string, creatorID uuid.UUID, invitees []models.User) (*models.Board, []notify.Message, error) {
	board, err := createBoard(tx, name, creatorID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating board: %w", err)
	}
	_, msgs, err := s.invite(tx, board, invitees)
	if err != nil {
		return nil, nil, err
	}
	return board, msgs, nil
}

// GrantMembership adds users straight to a board's members inside the
// caller's transaction and drops any invitations they still hold.
func (s *Service) GrantMembership(ctx context.Context, tx *gorm.DB, boardID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := addMembers(tx, boardID, userIDs); err != nil {
		return err
	}
	return tx.Where("board_id = ? AND user_id IN ?", boardID, userIDs).Delete(&models.BoardInvitation{}).Error
}

// DeleteBoard removes a board with everything under it, inside the caller's
// transaction.
func (s *Service) DeleteBoard(ctx context.Context, tx *gorm.DB, boardID uuid.UUID) error {
	cardIDs := tx.Model(&models.Card{}).Select("id").Where("board_id = ?", boardID)
	if err := tx.Where("card_id IN (?)", cardIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	steps := []struct {
		model interface{}
		where string
	}{
		{&models.Card{}, "board_id = ?"},
		{&models.List{}, "board_id = ?"},
		{&models.BoardInvitation{}, "board_id = ?"},
		{&models.BoardMember{}, "board_id = ?"},
		{&models.Board{}, "id = ?"},
	}
	for _, step := range steps {
		if err := tx.Where(step.where, boardID).Delete(step.model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) invite(tx *gorm.DB, board *models.Board, users []models.User) (*InviteResult, []notify.Message, error) {
	result := &InviteResult{}
	members := board.MemberIDs()
	invited := board.InvitedIDs()

	var msgs []notify.Message
	for _, u := range users {
		if members.Contains(u.ID) || invited.Contains(u.ID) {
			result.Skipped = append(result.Skipped, u.ID)
			continue
		}

		token, err := newInvitationToken()
		if err != nil {
			return nil, nil, err
		}
		inv := models.BoardInvitation{
			BoardID:   board.ID,
			UserID:    u.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(InvitationTTL),
		}
		if err := tx.Create(&inv).Error; err != nil {
			return nil, nil, fmt.Errorf("saving invitation: %w", err)
		}
		board.Invitations = append(board.Invitations, inv)
		invited = append(invited, u.ID)

		result.Invited = append(result.Invited, u.ID)
		msgs = append(msgs, notify.BoardInvitation(u.Email, u.Name, board.Name,
			s.links.AcceptInvitation(board.ID.String(), token)))
	}
	return result, msgs, nil
}

func addMembers(tx *gorm.DB, boardID uuid.UUID, userIDs []uuid.UUID) error {
	rows := make([]models.BoardMember, 0, len(userIDs))
	now := time.Now()
	for _, id := range userIDs {
		rows = append(rows, models.BoardMember{BoardID: boardID, UserID: id, JoinedAt: now})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *Service) loadBoard(ctx context.Context, db *gorm.DB, boardID uuid.UUID) (*models.Board, error) {
	var board models.Board
	err := db.WithContext(ctx).Preload("Members").Preload("Invitations").First(&board, "id = ?", boardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Board")
		}
		return nil, apperr.Internal(fmt.Errorf("loading board: %w", err))
	}
	return &board, nil
}

// accessibleBoard loads a board and checks the actor may work on it.
func (s *Service) accessibleBoard(ctx context.Context, boardID uuid.UUID, actor policy.Actor) (*models.Board, error) {
	board, err := s.loadBoard(ctx, s.db, boardID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(board, actor); err != nil {
		return nil, err
	}
	return board, nil
}

func checkAccess(board *models.Board, actor policy.Actor) error {
	subject := actor.On(policy.When(board.IsMember(actor.ID), policy.BoardMember))
	return policy.Enforce(policy.BoardAccess, subject, "You must be a board member, CEO or MANAGER to do this")
}
