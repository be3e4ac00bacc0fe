// Package projects is the project registry. Every project owns one board,
// created alongside it.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/boards"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	users   *directory.Service
	boards  *boards.Service
	mail    notify.Dispatcher
	links   notify.Links
	cascade bool
	logger  *slog.Logger
}

type Deps struct {
	DB     *gorm.DB
	Users  *directory.Service
	Boards *boards.Service
	Mail   notify.Dispatcher
	Links  notify.Links
	// CascadeDelete removes sprints and the board along with a project.
	CascadeDelete bool
	Logger        *slog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		db:      d.DB,
		users:   d.Users,
		boards:  d.Boards,
		mail:    d.Mail,
		links:   d.Links,
		cascade: d.CascadeDelete,
		logger:  d.Logger,
	}
}

// View is a project with its developer lists split by track.
type View struct {
	*models.Project
	FrontendDevs models.UUIDSet `json:"frontend_devs"`
	BackendDevs  models.UUIDSet `json:"backend_devs"`
}

func view(p *models.Project) *View {
	return &View{
		Project:      p,
		FrontendDevs: p.Devs(models.TrackFrontend),
		BackendDevs:  p.Devs(models.TrackBackend),
	}
}

// Details is the project-details view.
type Details struct {
	*View
	Sprints []models.Sprint `json:"sprints"`
}

type CreateInput struct {
	Name             string
	Description      string
	ProjectManagerID *uuid.UUID
	FrontendDevs     []uuid.UUID
	BackendDevs      []uuid.UUID
}

// UpdateInput holds the whitelisted fields; nil means unchanged.
type UpdateInput struct {
	Name             *string
	Description      *string
	ProjectManagerID *uuid.UUID
	Status           *models.ProjectStatus
}

// MembersInput names developers per track.
type MembersInput struct {
	FrontendDevs []uuid.UUID
	BackendDevs  []uuid.UUID
}

func (in MembersInput) empty() bool {
	return len(in.FrontendDevs) == 0 && len(in.BackendDevs) == 0
}

// Create writes the project and its board in one transaction. The creator
// becomes a board member; the manager and developers are invited.
func (s *Service) Create(ctx context.Context, in CreateInput, actor policy.Actor) (*View, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can create projects"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Project name is required")
	}

	devs, err := s.resolveMembers(ctx, MembersInput{FrontendDevs: in.FrontendDevs, BackendDevs: in.BackendDevs})
	if err != nil {
		return nil, err
	}

	inviteIDs := models.UUIDSet{}
	if in.ProjectManagerID != nil {
		if _, err := s.users.Get(ctx, *in.ProjectManagerID); err != nil {
			return nil, err
		}
		inviteIDs, _ = inviteIDs.Union([]uuid.UUID{*in.ProjectManagerID})
	}
	inviteIDs, _ = inviteIDs.Union(in.FrontendDevs)
	inviteIDs, _ = inviteIDs.Union(in.BackendDevs)
	inviteIDs, _ = inviteIDs.Without([]uuid.UUID{actor.ID})
	invitees, err := s.users.Resolve(ctx, inviteIDs)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:             name,
		Description:      in.Description,
		CreatedByID:      actor.ID,
		ProjectManagerID: in.ProjectManagerID,
		Status:           models.ProjectStatusToDo,
	}
	for _, d := range devs {
		project.Members = append(project.Members, models.ProjectMember{UserID: d.user.ID, Track: d.track})
	}

	var msgs []notify.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		board, boardMsgs, err := s.boards.ProvisionBoard(ctx, tx, name, actor.ID, invitees)
		if err != nil {
			return err
		}
		project.BoardID = &board.ID
		msgs = boardMsgs
		return tx.Create(project).Error
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating project: %w", err))
	}

	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("project created", "project_id", project.ID, "board_id", project.BoardID, "by", actor.ID)
	return view(project), nil
}

func (s *Service) FindAll(ctx context.Context, actor policy.Actor) ([]View, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can view all projects"); err != nil {
		return nil, err
	}
	return s.find(ctx, s.db.WithContext(ctx))
}

// FindMine returns projects the user created, manages or develops on.
func (s *Service) FindMine(ctx context.Context, actor policy.Actor) ([]View, error) {
	memberOf := s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", actor.ID)
	q := s.db.WithContext(ctx).
		Where("created_by_id = ? OR project_manager_id = ? OR id IN (?)", actor.ID, actor.ID, memberOf)
	return s.find(ctx, q)
}

func (s *Service) find(ctx context.Context, q *gorm.DB) ([]View, error) {
	var projects []models.Project
	if err := q.Preload("Members").Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing projects: %w", err))
	}
	out := make([]View, 0, len(projects))
	for i := range projects {
		out = append(out, *view(&projects[i]))
	}
	return out, nil
}

// Get returns the project-details view with sprints ordered by start time.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Details, error) {
	project, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var sprints []models.Sprint
	if err := s.db.WithContext(ctx).Where("project_id = ?", id).Order("start_time ASC").Find(&sprints).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading sprints: %w", err))
	}
	return &Details{View: view(project), Sprints: sprints}, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actor policy.Actor) (*View, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can update projects"); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Project name cannot be empty")
		}
		updates["name"] = name
		project.Name = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
		project.Description = *in.Description
	}
	if in.ProjectManagerID != nil {
		if _, err := s.users.Get(ctx, *in.ProjectManagerID); err != nil {
			return nil, err
		}
		updates["project_manager_id"] = *in.ProjectManagerID
		project.ProjectManagerID = in.ProjectManagerID
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("Invalid project status")
		}
		updates["status"] = *in.Status
		project.Status = *in.Status
	}
	if len(updates) == 0 {
		return view(project), nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating project: %w", err))
	}
	return view(project), nil
}

// AddMembers adds developers not yet on their track, mails each of them and
// makes them members of the project's board.
func (s *Service) AddMembers(ctx context.Context, id uuid.UUID, in MembersInput, actor policy.Actor) (*View, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can change project members"); err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, apperr.Validation("At least one developer ID is required")
	}
	devs, err := s.resolveMembers(ctx, in)
	if err != nil {
		return nil, err
	}
	project, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var (
		added []models.ProjectMember
		msgs  []notify.Message
		ids   []uuid.UUID
	)
	for _, d := range devs {
		if project.Devs(d.track).Contains(d.user.ID) {
			continue
		}
		added = append(added, models.ProjectMember{ProjectID: project.ID, UserID: d.user.ID, Track: d.track})
		ids = append(ids, d.user.ID)
		msgs = append(msgs, notify.AddedToProject(d.user.Email, d.user.Name, project.Name, string(d.track),
			s.links.Project(project.ID.String())))
	}
	if len(added) == 0 {
		return view(project), nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&added).Error; err != nil {
			return err
		}
		if project.BoardID == nil {
			return nil
		}
		return s.boards.GrantMembership(ctx, tx, *project.BoardID, ids)
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("adding project members: %w", err))
	}
	project.Members = append(project.Members, added...)

	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return nil, apperr.Internal(err)
	}
	return view(project), nil
}

// RemoveMembers drops developers from their track and mails each one that
// was actually removed. Board membership is left as is.
func (s *Service) RemoveMembers(ctx context.Context, id uuid.UUID, in MembersInput, actor policy.Actor) (*View, error) {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can change project members"); err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, apperr.Validation("At least one developer ID is required")
	}
	devs, err := s.resolveMembers(ctx, in)
	if err != nil {
		return nil, err
	}
	project, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var (
		removed []trackMember
		msgs    []notify.Message
	)
	for _, d := range devs {
		if !project.Devs(d.track).Contains(d.user.ID) {
			continue
		}
		removed = append(removed, d)
		msgs = append(msgs, notify.RemovedFromProject(d.user.Email, d.user.Name, project.Name, string(d.track)))
	}
	if len(removed) == 0 {
		return view(project), nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range removed {
			if err := tx.Where("project_id = ? AND user_id = ? AND track = ?", project.ID, d.user.ID, d.track).
				Delete(&models.ProjectMember{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("removing project members: %w", err))
	}

	kept := project.Members[:0]
	for _, m := range project.Members {
		if !isRemoved(removed, m) {
			kept = append(kept, m)
		}
	}
	project.Members = kept

	if err := s.mail.Dispatch(ctx, msgs...); err != nil {
		return nil, apperr.Internal(err)
	}
	return view(project), nil
}

// Delete is a hard delete. With cascade on, sprints and the board go too.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor policy.Actor) error {
	if err := policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can delete projects"); err != nil {
		return err
	}
	project, err := s.load(ctx, s.db, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if s.cascade {
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.Sprint{}).Error; err != nil {
				return err
			}
			if project.BoardID != nil {
				if err := s.boards.DeleteBoard(ctx, tx, *project.BoardID); err != nil {
					return err
				}
			}
		}
		return tx.Delete(&models.Project{}, "id = ?", project.ID).Error
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting project: %w", err))
	}

	s.logger.Info("project deleted", "project_id", id, "cascade", s.cascade, "by", actor.ID)
	return nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.WithContext(ctx).Preload("Members").First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Project")
		}
		return nil, apperr.Internal(fmt.Errorf("loading project: %w", err))
	}
	return &project, nil
}

type trackMember struct {
	user  models.User
	track models.DevTrack
}

// resolveMembers rejects duplicates within a track and unknown users.
func (s *Service) resolveMembers(ctx context.Context, in MembersInput) ([]trackMember, error) {
	var out []trackMember
	for _, group := range []struct {
		track models.DevTrack
		ids   []uuid.UUID
		label string
	}{
		{models.TrackFrontend, in.FrontendDevs, "frontendDevs"},
		{models.TrackBackend, in.BackendDevs, "backendDevs"},
	} {
		if len(group.ids) == 0 {
			continue
		}
		if err := directory.RequireDistinct(group.ids); err != nil {
			return nil, apperr.Validation("Duplicate IDs found in " + group.label)
		}
		users, err := s.users.Resolve(ctx, group.ids)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("Invalid " + string(group.track) + " developer IDs")
		}
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			out = append(out, trackMember{user: u, track: group.track})
		}
	}
	return out, nil
}

func isRemoved(removed []trackMember, m models.ProjectMember) bool {
	for _, r := range removed {
		if r.user.ID == m.UserID && r.track == m.Track {
			return true
		}
	}
	return false
}
