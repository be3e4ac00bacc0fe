// Package policy decides whether an actor may act on a resource, from the
// actor's role and its relationship to that resource.
package policy

import (
	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/google/uuid"
)

// Relation is a bit set describing how the actor relates to the resource.
type Relation uint8

const (
	BoardMember Relation = 1 << iota
	ProjectManager
	Author
	Owner
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// On describes the actor relative to one resource.
func (a Actor) On(rels ...Relation) Subject {
	return As(a.Role, rels...)
}

// Subject is an actor as seen by one resource.
type Subject struct {
	Role      models.Role
	Relations Relation
}

func (s Subject) Has(r Relation) bool { return s.Relations&r != 0 }

// As builds a subject, OR-ing relations whose condition holds.
func As(role models.Role, rels ...Relation) Subject {
	s := Subject{Role: role}
	for _, r := range rels {
		s.Relations |= r
	}
	return s
}

// When returns r if cond holds and zero otherwise; used with As.
func When(cond bool, r Relation) Relation {
	if cond {
		return r
	}
	return 0
}

type Rule func(Subject) bool

// Privileged: CEO or MANAGER.
func Privileged(s Subject) bool {
	return s.Role == models.RoleCEO || s.Role == models.RoleManager
}

// BoardAccess: board members plus privileged roles.
func BoardAccess(s Subject) bool {
	return Privileged(s) || s.Has(BoardMember)
}

// SprintAdmin: privileged roles plus the project's own manager.
func SprintAdmin(s Subject) bool {
	return Privileged(s) || s.Has(ProjectManager)
}

// CommentEditor: the comment's author or a privileged role.
func CommentEditor(s Subject) bool {
	return Privileged(s) || s.Has(Author)
}

// Enforce returns a forbidden error carrying reason when rule denies s.
func Enforce(rule Rule, s Subject, reason string) error {
	if rule(s) {
		return nil
	}
	return apperr.Forbidden(reason)
}

// approvers lists, per requester role, the roles allowed to decide on its leave.
var approvers = map[models.Role][]models.Role{
	models.RoleMember:  {models.RoleManager, models.RoleCEO},
	models.RoleManager: {models.RoleCEO},
	models.RoleCEO:     nil,
}

// LeaveApprovers returns the roles that may decide a leave requested by role.
func LeaveApprovers(role models.Role) []models.Role {
	return approvers[role]
}

// CanDecideLeave applies the seniority chain. Self-approval is handled by the
// caller since it needs identities, not roles.
func CanDecideLeave(approver, requester models.Role) bool {
	for _, r := range approvers[requester] {
		if r == approver {
			return true
		}
	}
	return false
}

// TracksAttendance reports whether role clocks in and out. The CEO does not.
func TracksAttendance(role models.Role) bool {
	return role == models.RoleManager || role == models.RoleMember
}
