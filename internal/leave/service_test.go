package leave_test

import (
	"context"
	"testing"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/leave"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/internal/testutil"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaveService(t *testing.T) (*leave.Service, *testutil.TestSetup) {
	t.Helper()
	ts := testutil.NewTestContext(t)
	svc := leave.NewService(ts.DB, directory.NewService(ts.DB), ts.Mail, ts.Config.Leave, util.DiscardLogger())
	return svc, ts
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func request(days int) leave.CreateInput {
	return leave.CreateInput{Type: models.LeaveCasual, Reason: "family", Quantity: days}
}

func TestCreate_AutoApproval(t *testing.T) {
	svc, ts := newLeaveService(t)
	ctx := context.Background()

	t.Run("short request is approved", func(t *testing.T) {
		member, _ := ts.NewUser(t, models.RoleMember)
		req, err := svc.Create(ctx, request(2), actorOf(member))
		require.NoError(t, err)
		assert.Equal(t, models.LeaveApproved, req.Status)
	})

	t.Run("long request stays pending", func(t *testing.T) {
		member, _ := ts.NewUser(t, models.RoleMember)
		req, err := svc.Create(ctx, request(3), actorOf(member))
		require.NoError(t, err)
		assert.Equal(t, models.LeavePending, req.Status)
	})

	t.Run("cap reached keeps short request pending", func(t *testing.T) {
		member, _ := ts.NewUser(t, models.RoleMember)
		require.NoError(t, ts.DB.Create(&models.LeaveRequest{
			UserID: member.ID, Type: models.LeaveAnnual, Status: models.LeaveApproved,
			Reason: "holiday", Quantity: 20, StartDate: util.StartOfDay(ts.User.CreatedAt),
		}).Error)

		req, err := svc.Create(ctx, request(1), actorOf(member))
		require.NoError(t, err)
		assert.Equal(t, models.LeavePending, req.Status)
	})

	t.Run("just under the cap is approved", func(t *testing.T) {
		member, _ := ts.NewUser(t, models.RoleMember)
		require.NoError(t, ts.DB.Create(&models.LeaveRequest{
			UserID: member.ID, Type: models.LeaveAnnual, Status: models.LeaveApproved,
			Reason: "holiday", Quantity: 19, StartDate: util.StartOfDay(ts.User.CreatedAt),
		}).Error)

		req, err := svc.Create(ctx, request(2), actorOf(member))
		require.NoError(t, err)
		assert.Equal(t, models.LeaveApproved, req.Status)
	})

	t.Run("invalid input", func(t *testing.T) {
		member, _ := ts.NewUser(t, models.RoleMember)
		_, err := svc.Create(ctx, leave.CreateInput{Type: "vacation", Reason: "x", Quantity: 1}, actorOf(member))
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		_, err = svc.Create(ctx, request(0), actorOf(member))
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestCreate_MailsApprovers(t *testing.T) {
	svc, ts := newLeaveService(t)
	ctx := context.Background()
	manager, _ := ts.NewUser(t, models.RoleManager)
	member, _ := ts.NewUser(t, models.RoleMember)

	_, err := svc.Create(ctx, request(1), actorOf(member))
	require.NoError(t, err)
	assert.Len(t, ts.Mail.To(ts.User.Email), 1)
	assert.Len(t, ts.Mail.To(manager.Email), 1)

	ts.Mail.Reset()
	_, err = svc.Create(ctx, request(1), actorOf(manager))
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Mail.Count())
	assert.Len(t, ts.Mail.To(ts.User.Email), 1)

	ts.Mail.Reset()
	_, err = svc.Create(ctx, request(1), actorOf(ts.User))
	require.NoError(t, err)
	assert.Zero(t, ts.Mail.Count())
}

func TestDecide(t *testing.T) {
	svc, ts := newLeaveService(t)
	ctx := context.Background()
	ceo := ts.User
	manager, _ := ts.NewUser(t, models.RoleManager)
	otherManager, _ := ts.NewUser(t, models.RoleManager)
	member, _ := ts.NewUser(t, models.RoleMember)

	memberReq, err := svc.Create(ctx, request(5), actorOf(member))
	require.NoError(t, err)
	managerReq, err := svc.Create(ctx, request(5), actorOf(manager))
	require.NoError(t, err)
	ceoReq, err := svc.Create(ctx, request(5), actorOf(ceo))
	require.NoError(t, err)

	tests := []struct {
		name   string
		req    *models.LeaveRequest
		actor  *models.User
		status models.LeaveStatus
		want   error
	}{
		{"ceo self approval", ceoReq, ceo, models.LeaveApproved, leave.ErrSelfApproval},
		{"manager cannot decide a manager", managerReq, otherManager, models.LeaveApproved, leave.ErrNotApprover},
		{"member cannot decide", memberReq, member, models.LeaveApproved, leave.ErrSelfApproval},
		{"manager approves member", memberReq, manager, models.LeaveApproved, nil},
		{"already decided", memberReq, ceo, models.LeaveRejected, leave.ErrNotPending},
		{"ceo rejects manager", managerReq, ceo, models.LeaveRejected, nil},
		{"nobody decides ceo leave", ceoReq, manager, models.LeaveApproved, leave.ErrNotApprover},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Decide(ctx, tt.req.ID, tt.status, actorOf(tt.actor))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			require.NotNil(t, got.DecidedByID)
			assert.Equal(t, tt.actor.ID, *got.DecidedByID)
		})
	}

	_, err = svc.Decide(ctx, ceoReq.ID, models.LeavePending, actorOf(manager))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListMineAndPending(t *testing.T) {
	svc, ts := newLeaveService(t)
	ctx := context.Background()
	manager, _ := ts.NewUser(t, models.RoleManager)
	member, _ := ts.NewUser(t, models.RoleMember)

	_, err := svc.Create(ctx, request(1), actorOf(member))
	require.NoError(t, err)
	pending, err := svc.Create(ctx, request(4), actorOf(member))
	require.NoError(t, err)
	_, err = svc.Create(ctx, request(3), actorOf(manager))
	require.NoError(t, err)

	sum, err := svc.ListMine(ctx, actorOf(member))
	require.NoError(t, err)
	assert.Len(t, sum.Leaves, 2)
	assert.Equal(t, 1, sum.ApprovedDays)
	assert.Equal(t, 4, sum.PendingDays)
	assert.Equal(t, 5, sum.RequestedDays)

	forManager, err := svc.Pending(ctx, actorOf(manager))
	require.NoError(t, err)
	require.Len(t, forManager, 1)
	assert.Equal(t, pending.ID, forManager[0].ID)

	forCEO, err := svc.Pending(ctx, actorOf(ts.User))
	require.NoError(t, err)
	assert.Len(t, forCEO, 2)

	forMember, err := svc.Pending(ctx, actorOf(member))
	require.NoError(t, err)
	assert.Empty(t, forMember)
}
