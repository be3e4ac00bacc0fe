package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/api/dto"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/attendance"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/leave"
	"github.com/adnan-tnd/flow-core/internal/reviews"
)

type AttendanceHandler struct {
	attendance *attendance.Service
	logger     *slog.Logger
}

func NewAttendanceHandler(attendance *attendance.Service, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, logger: logger}
}

// ClockInOut handles POST /attendance/inroll.
func (h *AttendanceHandler) ClockInOut(w http.ResponseWriter, r *http.Request) {
	var req dto.AttendanceRequest
	if !decode(w, r, &req) {
		return
	}

	rec, err := h.attendance.ClockInOut(r.Context(), attendance.Action(req.Status), validation.CleanText(req.Notes), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *AttendanceHandler) MyReport(w http.ResponseWriter, r *http.Request) {
	var req dto.AttendanceReportRequest
	if !decode(w, r, &req) {
		return
	}

	from, _ := validation.ParseDate(*req.StartDate)
	to, _ := validation.ParseDate(*req.EndDate)
	report, err := h.attendance.Report(r.Context(), from, to, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type LeaveHandler struct {
	leave  *leave.Service
	logger *slog.Logger
}

func NewLeaveHandler(leave *leave.Service, logger *slog.Logger) *LeaveHandler {
	return &LeaveHandler{leave: leave, logger: logger}
}

func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLeaveRequest
	if !decode(w, r, &req) {
		return
	}

	request, err := h.leave.Create(r.Context(), leave.CreateInput{
		Type:      models.LeaveType(req.Type),
		Reason:    validation.CleanText(req.Reason),
		Quantity:  req.Quantity,
		StartDate: optionalDate(req.StartDate),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (h *LeaveHandler) Mine(w http.ResponseWriter, r *http.Request) {
	summary, err := h.leave.ListMine(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *LeaveHandler) Pending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.leave.Pending(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *LeaveHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req dto.DecideLeaveRequest
	if !decode(w, r, &req) {
		return
	}

	request, err := h.leave.Decide(r.Context(), id, models.LeaveStatus(req.Status), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

type ReviewHandler struct {
	reviews *reviews.Service
	logger  *slog.Logger
}

func NewReviewHandler(reviews *reviews.Service, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReviewRequest
	if !decode(w, r, &req) {
		return
	}

	review, err := h.reviews.Create(r.Context(), reviews.CreateInput{
		Rating:    req.Rating,
		Comment:   validation.CleanText(strings.TrimSpace(req.Comment)),
		ProjectID: optionalID(req.ProjectID),
		UserID:    optionalID(req.UserID),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ProjectReviews(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(w, r, "projectId")
	if !ok {
		return
	}

	list, err := h.reviews.ProjectReviews(r.Context(), projectID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReviewHandler) UserReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}

	list, err := h.reviews.UserReviews(r.Context(), userID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReviewHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	list, err := h.reviews.MyReviews(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReviewHandler) MyProjectReviews(w http.ResponseWriter, r *http.Request) {
	list, err := h.reviews.MyProjectReviews(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
