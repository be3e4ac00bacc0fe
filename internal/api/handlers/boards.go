package handlers

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/api/dto"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/boards"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file bytes themselves.
const multipartOverhead = 1 << 20

type BoardHandler struct {
	boards *boards.Service
	limits config.StorageConfig
	logger *slog.Logger
}

func NewBoardHandler(boards *boards.Service, limits config.StorageConfig, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{boards: boards, limits: limits, logger: logger}
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBoardRequest
	if !decode(w, r, &req) {
		return
	}

	board, err := h.boards.Create(r.Context(), req.Name, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

func (h *BoardHandler) AddUsers(w http.ResponseWriter, r *http.Request) {
	boardID, ok := urlID(w, r, "boardId")
	if !ok {
		return
	}
	var req dto.UserIDsRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.boards.AddUsers(r.Context(), boardID, mustIDs(req.UserIDs), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AcceptInvitation is reached from the emailed link and needs no session.
func (h *BoardHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	boardID, ok := urlID(w, r, "boardId")
	if !ok {
		return
	}

	board, err := h.boards.AcceptInvitation(r.Context(), boardID, chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *BoardHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.boards.MyBoards(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	boardID, ok := urlID(w, r, "boardId")
	if !ok {
		return
	}

	board, err := h.boards.Get(r.Context(), boardID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *BoardHandler) Members(w http.ResponseWriter, r *http.Request) {
	boardID, ok := urlID(w, r, "boardId")
	if !ok {
		return
	}

	users, err := h.boards.Members(r.Context(), boardID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *BoardHandler) Lists(w http.ResponseWriter, r *http.Request) {
	boardID, ok := urlID(w, r, "boardId")
	if !ok {
		return
	}

	lists, err := h.boards.Lists(r.Context(), boardID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *BoardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateListRequest
	if !decode(w, r, &req) {
		return
	}

	list, err := h.boards.CreateList(r.Context(), uuid.MustParse(req.BoardID), req.Name, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *BoardHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listId")
	if !ok {
		return
	}
	var req dto.NameRequest
	if !decode(w, r, &req) {
		return
	}

	list, err := h.boards.UpdateList(r.Context(), listID, req.Name, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BoardHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listId")
	if !ok {
		return
	}

	if err := h.boards.DeleteList(r.Context(), listID, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "List deleted"})
}

func (h *BoardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCardRequest
	if !decode(w, r, &req) {
		return
	}

	card, err := h.boards.CreateCard(r.Context(), boards.CreateCardInput{
		ListID:        uuid.MustParse(req.ListID),
		Name:          req.Name,
		Description:   validation.CleanText(req.Description),
		AssignedUsers: mustIDs(req.AssignedUsers),
		DueDate:       optionalDate(req.DueDate),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *BoardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}

	card, err := h.boards.GetCard(r.Context(), cardID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *BoardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}
	var req dto.UpdateCardRequest
	if !decode(w, r, &req) {
		return
	}

	in := boards.UpdateCardInput{
		Name:   req.Name,
		ListID: optionalID(req.ListID),
	}
	if req.Description != nil {
		desc := validation.CleanText(*req.Description)
		in.Description = &desc
	}
	if req.AssignedUsers != nil {
		in.ReplaceUsers = true
		in.AssignedUsers = mustIDs(*req.AssignedUsers)
	}
	if due, sent := req.DueDateValue(); sent {
		if due == "" {
			in.ClearDueDate = true
		} else {
			in.DueDate = optionalDate(&due)
		}
	}
	if req.Status != nil {
		status := models.CardStatus(*req.Status)
		in.Status = &status
	}

	card, err := h.boards.UpdateCard(r.Context(), cardID, in, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *BoardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}

	if err := h.boards.DeleteCard(r.Context(), cardID, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Card deleted"})
}

func (h *BoardHandler) UpdateCardStatus(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}
	var req dto.CardStatusRequest
	if !decode(w, r, &req) {
		return
	}

	card, err := h.boards.UpdateStatus(r.Context(), cardID, models.CardStatus(req.Status), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *BoardHandler) AssignMembers(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}
	var req dto.UserIDsRequest
	if !decode(w, r, &req) {
		return
	}

	card, err := h.boards.AssignMembers(r.Context(), cardID, mustIDs(req.UserIDs), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *BoardHandler) UnassignMembers(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}
	var req dto.UserIDsRequest
	if !decode(w, r, &req) {
		return
	}

	card, err := h.boards.UnassignMembers(r.Context(), cardID, mustIDs(req.UserIDs), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// AddAttachments takes a multipart form with one or more "files" parts.
func (h *BoardHandler) AddAttachments(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}

	maxBody := int64(h.limits.MaxFiles)*h.limits.MaxFileBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(maxBody); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or too large upload"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "No files provided"})
		return
	}

	files, closeAll, err := openParts(headers)
	defer closeAll()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Could not read uploaded files"})
		return
	}

	card, err := h.boards.AddAttachments(r.Context(), cardID, files, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func openParts(headers []*multipart.FileHeader) ([]io.Reader, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	readers := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		opened = append(opened, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}

func (h *BoardHandler) RemoveAttachments(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}
	var req dto.RemoveAttachmentsRequest
	if !decode(w, r, &req) {
		return
	}

	urls := make([]string, 0, len(req.AttachmentURLs))
	for _, u := range req.AttachmentURLs {
		urls = append(urls, strings.TrimSpace(u))
	}

	card, err := h.boards.RemoveAttachments(r.Context(), cardID, urls, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *BoardHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !decode(w, r, &req) {
		return
	}

	comment, err := h.boards.AddComment(r.Context(), cardID, validation.CleanText(req.Text), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *BoardHandler) Comments(w http.ResponseWriter, r *http.Request) {
	cardID, ok := urlID(w, r, "cardId")
	if !ok {
		return
	}

	comments, err := h.boards.Comments(r.Context(), cardID, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *BoardHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := urlID(w, r, "commentId")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !decode(w, r, &req) {
		return
	}

	comment, err := h.boards.UpdateComment(r.Context(), commentID, validation.CleanText(req.Text), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *BoardHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := urlID(w, r, "commentId")
	if !ok {
		return
	}

	if err := h.boards.DeleteComment(r.Context(), commentID, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Comment deleted"})
}
