// Package leave runs the leave-request workflow: submission with automatic
// approval under a threshold, and manual decisions along the seniority chain.
package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSelfApproval = apperr.Forbidden("You cannot decide on your own leave request")
	ErrNotPending   = apperr.Forbidden("You are not able to approve this leave")
	ErrNotApprover  = apperr.Forbidden("You are not able to approve this leave")
)

type Service struct {
	db     *gorm.DB
	users  *directory.Service
	mail   notify.Dispatcher
	limits config.LeaveConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, users *directory.Service, mail notify.Dispatcher, limits config.LeaveConfig, logger *slog.Logger) *Service {
	return &Service{db: db, users: users, mail: mail, limits: limits, logger: logger, now: time.Now}
}

type CreateInput struct {
	Type      models.LeaveType
	Reason    string
	Quantity  int
	StartDate *time.Time
}

// Summary is a user's requests with day totals per status.
type Summary struct {
	Leaves        []models.LeaveRequest `json:"leaves"`
	ApprovedDays  int                   `json:"total_approved_leave"`
	PendingDays   int                   `json:"total_pending_leave"`
	RejectedDays  int                   `json:"total_rejected_leave"`
	RequestedDays int                   `json:"total_requested_leave"`
}

// Create stores a request. It is approved on the spot when it is short
// enough and the requester has not used up the approved-days cap.
func (s *Service) Create(ctx context.Context, in CreateInput, actor policy.Actor) (*models.LeaveRequest, error) {
	if !in.Type.Valid() {
		return nil, apperr.Validation("Invalid leave type")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperr.Validation("Reason is required")
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1 day")
	}
	requester, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	start := util.StartOfDay(s.now().UTC())
	if in.StartDate != nil {
		start = util.StartOfDay(in.StartDate.UTC())
	}

	prior, err := s.approvedDays(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	req := &models.LeaveRequest{
		UserID:    actor.ID,
		Type:      in.Type,
		Status:    models.LeavePending,
		Reason:    reason,
		Quantity:  in.Quantity,
		StartDate: start,
	}
	if in.Quantity <= s.limits.AutoApproveMaxDays && prior < s.limits.AutoApproveCapDays {
		now := s.now()
		req.Status = models.LeaveApproved
		req.DecidedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating leave request: %w", err))
	}

	approvers, err := s.users.ByRoles(ctx, policy.LeaveApprovers(requester.Role)...)
	if err != nil {
		return nil, err
	}
	msgs := make([]notify.Message, 0, len(approvers))
	for _, a := range approvers {
		msgs = append(msgs, notify.LeaveRequested(a.Email, requester.Name, requester.Role.Label(), string(req.Type), req.Quantity, req.Reason))
	}
	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("leave requested", "leave_id", req.ID, "user_id", actor.ID, "status", req.Status, "days", req.Quantity)
	return req, nil
}

func (s *Service) ListMine(ctx context.Context, actor policy.Actor) (*Summary, error) {
	var leaves []models.LeaveRequest
	if err := s.db.WithContext(ctx).Where("user_id = ?", actor.ID).Order("created_at DESC").Find(&leaves).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing leave requests: %w", err))
	}

	sum := &Summary{Leaves: leaves}
	for _, l := range leaves {
		sum.RequestedDays += l.Quantity
		switch l.Status {
		case models.LeaveApproved:
			sum.ApprovedDays += l.Quantity
		case models.LeavePending:
			sum.PendingDays += l.Quantity
		case models.LeaveRejected:
			sum.RejectedDays += l.Quantity
		}
	}
	return sum, nil
}

// Pending lists pending requests the actor may decide on.
func (s *Service) Pending(ctx context.Context, actor policy.Actor) ([]models.LeaveRequest, error) {
	var roles []models.Role
	for _, r := range []models.Role{models.RoleMember, models.RoleManager, models.RoleCEO} {
		if policy.CanDecideLeave(actor.Role, r) {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return []models.LeaveRequest{}, nil
	}

	requesters := s.db.Model(&models.User{}).Select("id").Where("role IN ?", roles)
	var leaves []models.LeaveRequest
	err := s.db.WithContext(ctx).
		Where("status = ? AND user_id <> ? AND user_id IN (?)", models.LeavePending, actor.ID, requesters).
		Order("created_at ASC").
		Find(&leaves).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing pending leave: %w", err))
	}
	return leaves, nil
}

// Decide approves or rejects a pending request. Self-approval is checked
// before anything else.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, status models.LeaveStatus, actor policy.Actor) (*models.LeaveRequest, error) {
	if status != models.LeaveApproved && status != models.LeaveRejected {
		return nil, apperr.Validation("Status must be approved or rejected")
	}

	var req models.LeaveRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Leave request")
		}
		return nil, apperr.Internal(fmt.Errorf("loading leave request: %w", err))
	}

	if req.UserID == actor.ID {
		return nil, ErrSelfApproval
	}
	if req.Status != models.LeavePending {
		return nil, ErrNotPending
	}
	requester, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDecideLeave(actor.Role, requester.Role) {
		return nil, ErrNotApprover
	}
	decider, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req.Status = status
	req.DecidedByID = &actor.ID
	req.DecidedAt = &now
	err = s.db.WithContext(ctx).Model(&req).Updates(map[string]interface{}{
		"status":        status,
		"decided_by_id": actor.ID,
		"decided_at":    now,
	}).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating leave request: %w", err))
	}

	msg := notify.LeaveDecided(requester.Email, requester.Name, string(status), req.Quantity, decider.Name)
	if err := s.mail.Dispatch(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("leave decided", "leave_id", req.ID, "status", status, "by", actor.ID)
	return &req, nil
}

func (s *Service) approvedDays(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.LeaveRequest{}).
		Where("user_id = ? AND status = ?", userID, models.LeaveApproved).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("summing approved leave: %w", err))
	}
	return int(total), nil
}
