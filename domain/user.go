package domain

import (
	"strings"
	"time"

	"github.com/fastygo/taskapi/pkg/optional"
)

// User represents an authenticated identity in the platform.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch is a sparse profile update.
type UserPatch struct {
	Name  optional.Field[string]
	Email optional.Field[string]
}

func (p UserPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Email.Set
}

func (p UserPatch) Apply(u *User) {
	if u == nil {
		return
	}
	if p.Name.Set {
		u.Name = p.Name.Value
	}
	if p.Email.Set {
		u.Email = p.Email.Value
	}
}

// NormalizeEmail trims and lowercases an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
