package dto

import (
	"strings"

	"github.com/adnan-tnd/flow-core/internal/database/models"
)

type AttendanceRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

func (r AttendanceRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Status != "clock_in" && r.Status != "clock_out" {
		errors["status"] = "Status must be clock_in or clock_out"
	}
	return errors
}

type AttendanceReportRequest struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

func (r AttendanceReportRequest) Validate() map[string]string {
	errors := make(map[string]string)
	checkDate(errors, "startDate", r.StartDate, true)
	checkDate(errors, "endDate", r.EndDate, true)
	return errors
}

type CreateLeaveRequest struct {
	Type      string  `json:"type"`
	Reason    string  `json:"reason"`
	Quantity  int     `json:"quantity"`
	StartDate *string `json:"startDate,omitempty"`
}

func (r CreateLeaveRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if !models.LeaveType(r.Type).Valid() {
		errors["type"] = "Type must be one of casual, sick, annual"
	}
	if strings.TrimSpace(r.Reason) == "" {
		errors["reason"] = "Reason is required"
	}
	if r.Quantity < 1 {
		errors["quantity"] = "Quantity must be at least 1"
	}
	checkDate(errors, "startDate", r.StartDate, false)
	return errors
}

type DecideLeaveRequest struct {
	Status string `json:"status"`
}

func (r DecideLeaveRequest) Validate() map[string]string {
	errors := make(map[string]string)
	switch models.LeaveStatus(r.Status) {
	case models.LeaveApproved, models.LeaveRejected:
	default:
		errors["status"] = "Status must be approved or rejected"
	}
	return errors
}

type CreateReviewRequest struct {
	Rating    int     `json:"rating"`
	Comment   string  `json:"comment"`
	ProjectID *string `json:"projectId,omitempty"`
	UserID    *string `json:"userId,omitempty"`
}

func (r CreateReviewRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Rating < 1 || r.Rating > 5 {
		errors["rating"] = "Rating must be between 1 and 5"
	}
	if strings.TrimSpace(r.Comment) == "" {
		errors["comment"] = "Comment is required"
	}
	checkOptionalID(errors, "projectId", r.ProjectID)
	checkOptionalID(errors, "userId", r.UserID)
	return errors
}
