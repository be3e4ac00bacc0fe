package dto

import (
	"github.com/adnan-tnd/flow-core/internal/api/validation"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// UserIDsRequest is the body of every "apply to these users" endpoint.
type UserIDsRequest struct {
	UserIDs []string `json:"userIds"`
}

func (r UserIDsRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.UserIDs) == 0 {
		errors["userIds"] = "At least one user ID is required"
	}
	checkIDs(errors, "userIds", r.UserIDs)
	return errors
}

func checkIDs(errors map[string]string, field string, ids []string) {
	if _, bad, ok := validation.ParseUUIDs(ids); !ok {
		errors[field] = "Invalid ID format: " + bad
	}
}

func checkOptionalID(errors map[string]string, field string, id *string) {
	if id == nil || *id == "" {
		return
	}
	if !validation.IsValidUUID(*id) {
		errors[field] = "Invalid ID format"
	}
}

func checkDate(errors map[string]string, field string, value *string, required bool) {
	if value == nil || *value == "" {
		if required {
			errors[field] = "Date is required"
		}
		return
	}
	if _, ok := validation.ParseDate(*value); !ok {
		errors[field] = "Invalid date format"
	}
}
