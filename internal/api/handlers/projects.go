package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/api/dto"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/internal/projects"
	"github.com/adnan-tnd/flow-core/internal/sprints"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projects *projects.Service
	logger   *slog.Logger
}

func NewProjectHandler(projects *projects.Service, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}

	view, err := h.projects.Create(r.Context(), projects.CreateInput{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		ProjectManagerID: optionalID(req.ProjectManager),
		FrontendDevs:     mustIDs(req.FrontendDevs),
		BackendDevs:      mustIDs(req.BackendDevs),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.projects.FindAll(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ProjectHandler) Mine(w http.ResponseWriter, r *http.Request) {
	views, err := h.projects.FindMine(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateProjectRequest
	if !decode(w, r, &req) {
		return
	}

	in := projects.UpdateInput{
		Name:             req.Name,
		Description:      req.Description,
		ProjectManagerID: optionalID(req.ProjectManager),
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		in.Status = &status
	}

	view, err := h.projects.Update(r.Context(), id, in, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ProjectHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, h.projects.AddMembers)
}

func (h *ProjectHandler) RemoveMembers(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, h.projects.RemoveMembers)
}

func (h *ProjectHandler) changeMembers(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID, in projects.MembersInput, actor policy.Actor) (*projects.View, error)) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ProjectMembersRequest
	if !decode(w, r, &req) {
		return
	}

	view, err := apply(r.Context(), id, projects.MembersInput{
		FrontendDevs: mustIDs(req.FrontendDevs),
		BackendDevs:  mustIDs(req.BackendDevs),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), id, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project deleted"})
}

// SprintHandler serves sprints nested under /project/{id}/sprints.
type SprintHandler struct {
	sprints *sprints.Service
	logger  *slog.Logger
}

func NewSprintHandler(sprints *sprints.Service, logger *slog.Logger) *SprintHandler {
	return &SprintHandler{sprints: sprints, logger: logger}
}

func (h *SprintHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	list, err := h.sprints.FindAllByProject(r.Context(), projectID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *SprintHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req dto.CreateSprintRequest
	if !decode(w, r, &req) {
		return
	}

	start, _ := validation.ParseDate(*req.StartTime)
	end, _ := validation.ParseDate(*req.EndTime)
	sprint, err := h.sprints.Create(r.Context(), projectID, sprints.CreateInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		Status:      models.SprintStatus(req.Status),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sprint)
}

func (h *SprintHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	sprintID, ok := urlID(w, r, "sprintId")
	if !ok {
		return
	}
	var req dto.UpdateSprintRequest
	if !decode(w, r, &req) {
		return
	}

	in := sprints.UpdateInput{Name: req.Name, Description: req.Description}
	in.StartTime = optionalDate(req.StartTime)
	in.EndTime = optionalDate(req.EndTime)
	if req.Status != nil {
		status := models.SprintStatus(*req.Status)
		in.Status = &status
	}

	sprint, err := h.sprints.Update(r.Context(), projectID, sprintID, in, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

func (h *SprintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	sprintID, ok := urlID(w, r, "sprintId")
	if !ok {
		return
	}

	if err := h.sprints.Delete(r.Context(), projectID, sprintID, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Sprint deleted"})
}
