package validation

import (
	"strconv"
	"strings"

	"github.com/fastygo/taskapi/domain"
)

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordChecks is the composite password policy. Every failing class is
// reported, not only the first.
func PasswordChecks(label string) []Check {
	return []Check{
		{Tag: "min=8", Message: label + " must be at least 8 characters"},
		{Tag: "maxbytes=" + strconv.Itoa(MaxPasswordBytes), Message: label + " must be at most 72 bytes"},
		{Tag: "haslower", Message: label + " must contain at least one lowercase letter"},
		{Tag: "hasupper", Message: label + " must contain at least one uppercase letter"},
		{Tag: "hasdigit", Message: label + " must contain at least one number"},
		{Tag: "hasspecial", Message: label + " must contain at least one special character"},
		{Tag: "nospace", Message: label + " must not contain spaces"},
	}
}

// StatusTag accepts exactly the task status enumeration.
var StatusTag = "oneof=" + strings.Join(domain.TaskStatuses, " ")
