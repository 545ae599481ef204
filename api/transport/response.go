package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/taskapi/domain"
)

// MessageResponse is the body of plain acknowledgements and of errors that
// are not tied to a field.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse lists every failed field rule.
type ValidationErrorResponse struct {
	Errors []domain.FieldError `json:"errors"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type HealthResponse struct {
	Status    string          `json:"status"`
	Services  map[string]bool `json:"services"`
	LastCheck time.Time       `json:"lastCheck"`
}

func NewMessage(message string) MessageResponse {
	return MessageResponse{Message: message}
}

// String returns the JSON representation (best-effort) for logging purposes.
func String(payload interface{}) string {
	out, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(out)
}
