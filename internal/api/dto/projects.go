package dto

import (
	"strings"

	"github.com/adnan-tnd/flow-core/internal/database/models"
)

type CreateProjectRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ProjectManager *string  `json:"projectManager,omitempty"`
	FrontendDevs   []string `json:"frontendDevs,omitempty"`
	BackendDevs    []string `json:"backendDevs,omitempty"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	checkOptionalID(errors, "projectManager", r.ProjectManager)
	checkIDs(errors, "frontendDevs", r.FrontendDevs)
	checkIDs(errors, "backendDevs", r.BackendDevs)
	return errors
}

// UpdateProjectRequest only carries whitelisted fields. Membership changes
// go through the members endpoints.
type UpdateProjectRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	ProjectManager *string `json:"projectManager,omitempty"`
	Status         *string `json:"status,omitempty"`
}

func (r UpdateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errors["name"] = "Name cannot be empty"
	}
	checkOptionalID(errors, "projectManager", r.ProjectManager)
	if r.Status != nil && !models.ProjectStatus(*r.Status).Valid() {
		errors["status"] = "Status must be one of To Do, In Progress, Done"
	}
	return errors
}

type ProjectMembersRequest struct {
	FrontendDevs []string `json:"frontendDevs,omitempty"`
	BackendDevs  []string `json:"backendDevs,omitempty"`
}

func (r ProjectMembersRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.FrontendDevs) == 0 && len(r.BackendDevs) == 0 {
		errors["frontendDevs"] = "Provide frontendDevs or backendDevs"
	}
	checkIDs(errors, "frontendDevs", r.FrontendDevs)
	checkIDs(errors, "backendDevs", r.BackendDevs)
	return errors
}

type CreateSprintRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Status      string  `json:"status,omitempty"`
}

func (r CreateSprintRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	checkDate(errors, "startTime", r.StartTime, true)
	checkDate(errors, "endTime", r.EndTime, true)
	if r.Status != "" && !models.SprintStatus(r.Status).Valid() {
		errors["status"] = "Status must be one of To Do, In Progress, Complete"
	}
	return errors
}

type UpdateSprintRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartTime   *string `json:"startTime,omitempty"`
	EndTime     *string `json:"endTime,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r UpdateSprintRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errors["name"] = "Name cannot be empty"
	}
	checkDate(errors, "startTime", r.StartTime, false)
	checkDate(errors, "endTime", r.EndTime, false)
	if r.Status != nil && !models.SprintStatus(*r.Status).Valid() {
		errors["status"] = "Status must be one of To Do, In Progress, Complete"
	}
	return errors
}
