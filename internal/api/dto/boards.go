package dto

import (
	"encoding/json"
	"strings"

	"github.com/adnan-tnd/flow-core/internal/database/models"
)

type CreateBoardRequest struct {
	Name string `json:"name"`
}

func (r CreateBoardRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

type CreateListRequest struct {
	BoardID string `json:"boardId"`
	Name    string `json:"name"`
}

func (r CreateListRequest) Validate() map[string]string {
	errors := make(map[string]string)
	checkOptionalID(errors, "boardId", &r.BoardID)
	if r.BoardID == "" {
		errors["boardId"] = "Board ID is required"
	}
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

// NameRequest renames a list.
type NameRequest struct {
	Name string `json:"name"`
}

func (r NameRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

type CreateCardRequest struct {
	ListID        string   `json:"listId"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	AssignedUsers []string `json:"assignedUsers,omitempty"`
	DueDate       *string  `json:"dueDate,omitempty"`
}

func (r CreateCardRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.ListID == "" {
		errors["listId"] = "List ID is required"
	} else {
		checkOptionalID(errors, "listId", &r.ListID)
	}
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	checkIDs(errors, "assignedUsers", r.AssignedUsers)
	checkDate(errors, "dueDate", r.DueDate, false)
	return errors
}

// UpdateCardRequest distinguishes an absent dueDate from an explicit null,
// which clears it.
type UpdateCardRequest struct {
	Name          *string         `json:"name,omitempty"`
	Description   *string         `json:"description,omitempty"`
	ListID        *string         `json:"listId,omitempty"`
	AssignedUsers *[]string       `json:"assignedUsers,omitempty"`
	DueDate       json.RawMessage `json:"dueDate,omitempty"`
	Status        *string         `json:"status,omitempty"`
}

// DueDateValue reports whether dueDate was sent and its string value; an
// explicit null yields ("", true).
func (r UpdateCardRequest) DueDateValue() (string, bool) {
	if len(r.DueDate) == 0 {
		return "", false
	}
	if string(r.DueDate) == "null" {
		return "", true
	}
	var s string
	if err := json.Unmarshal(r.DueDate, &s); err != nil {
		return "\x00", true
	}
	return s, true
}

func (r UpdateCardRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errors["name"] = "Name cannot be empty"
	}
	checkOptionalID(errors, "listId", r.ListID)
	if r.AssignedUsers != nil {
		checkIDs(errors, "assignedUsers", *r.AssignedUsers)
	}
	if due, sent := r.DueDateValue(); sent && due != "" {
		checkDate(errors, "dueDate", &due, false)
	}
	if r.Status != nil && !models.CardStatus(*r.Status).Valid() {
		errors["status"] = "Status must be one of pending, in_progress, review, completed"
	}
	return errors
}

type CardStatusRequest struct {
	Status string `json:"status"`
}

func (r CardStatusRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if !models.CardStatus(r.Status).Valid() {
		errors["status"] = "Status must be one of pending, in_progress, review, completed"
	}
	return errors
}

type RemoveAttachmentsRequest struct {
	AttachmentURLs []string `json:"attachmentUrls"`
}

func (r RemoveAttachmentsRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.AttachmentURLs) == 0 {
		errors["attachmentUrls"] = "At least one attachment URL is required"
	}
	return errors
}

type CommentRequest struct {
	Text string `json:"text"`
}

func (r CommentRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Text) == "" {
		errors["text"] = "Text is required"
	}
	return errors
}
