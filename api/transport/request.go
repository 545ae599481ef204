package transport

import (
	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/optional"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdateRequest keeps track of which fields the client sent.
type ProfileUpdateRequest struct {
	Name  optional.Field[string] `json:"name"`
	Email optional.Field[string] `json:"email"`
}

func (r ProfileUpdateRequest) Patch() domain.UserPatch {
	return domain.UserPatch{Name: r.Name, Email: r.Email}
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// TaskRequest is used for both create and update; absent fields stay unset.
type TaskRequest struct {
	Title       optional.Field[string] `json:"title"`
	Description optional.Field[string] `json:"description"`
	Status      optional.Field[string] `json:"status"`
}

func (r TaskRequest) Patch() domain.TaskPatch {
	return domain.TaskPatch{Title: r.Title, Description: r.Description, Status: r.Status}
}
