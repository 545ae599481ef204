// Package validation evaluates declarative per-field rule sets and reports
// every violated rule at once.
package validation

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/optional"
)

// Check is one predicate, expressed as a validator tag, and the message
// reported when it fails.
type Check struct {
	Tag     string
	Message string
}

// FieldRules is the chain of checks for one request field. Optional rules
// are skipped entirely when the field is absent from the request.
type FieldRules struct {
	Field    string
	Optional bool
	Checks   []Check
}

// RuleSet is the declarative rule list of one endpoint.
type RuleSet []FieldRules

// Value is a snapshot of a single request field.
type Value struct {
	Raw     string
	Present bool
}

// Input is an immutable view of the request body keyed by field name.
type Input map[string]Value

// Present returns a present value.
func Present(raw string) Value {
	return Value{Raw: raw, Present: true}
}

// FromField converts a decoded optional field into a snapshot value.
func FromField(f optional.Field[string]) Value {
	return Value{Raw: f.Value, Present: f.Set}
}

// Validator runs rule sets through go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the custom tags used by the API registered.
func New() *Validator {
	v := validator.New()
	for tag, fn := range customChecks {
		// registration only fails on an empty tag or nil func
		_ = v.RegisterValidation(tag, fn)
	}
	return &Validator{validate: v}
}

var std = New()

// Validate runs rules against in using the shared Validator.
func Validate(rules RuleSet, in Input) error {
	return std.Validate(rules, in)
}

// Validate evaluates every check of every field and returns a
// *domain.ValidationError listing all failures, or nil.
func (v *Validator) Validate(rules RuleSet, in Input) error {
	var failures []domain.FieldError
	for _, fr := range rules {
		value := in[fr.Field]
		if fr.Optional && !value.Present {
			continue
		}
		for _, check := range fr.Checks {
			if err := v.validate.Var(value.Raw, check.Tag); err != nil {
				failures = append(failures, domain.FieldError{Field: fr.Field, Message: check.Message})
			}
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: failures}
}

var customChecks = map[string]validator.Func{
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
	"haslower": func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), isASCIILower) >= 0
	},
	"hasupper": func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), isASCIIUpper) >= 0
	},
	"hasdigit": func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), isASCIIDigit) >= 0
	},
	"hasspecial": func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
			return !isASCIILower(r) && !isASCIIUpper(r) && !isASCIIDigit(r)
		}) >= 0
	},
	// maxbytes bounds the UTF-8 length; max= counts runes.
	"maxbytes": func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	},
	"nospace": func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsSpace) < 0
	},
}

func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
