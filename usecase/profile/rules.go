package profile

import "github.com/fastygo/taskapi/pkg/validation"

var updateRules = validation.RuleSet{
	{Field: "name", Optional: true, Checks: []validation.Check{
		{Tag: "required", Message: "Name cannot be empty"},
	}},
	{Field: "email", Optional: true, Checks: []validation.Check{
		{Tag: "email", Message: "Valid email is required"},
	}},
}

var passwordRules = validation.RuleSet{
	{Field: "currentPassword", Checks: []validation.Check{
		{Tag: "required", Message: "Current password is required"},
	}},
	{Field: "newPassword", Checks: validation.PasswordChecks("New password")},
}
