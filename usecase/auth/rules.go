package auth

import "github.com/fastygo/taskapi/pkg/validation"

var registerRules = validation.RuleSet{
	{Field: "name", Checks: []validation.Check{
		{Tag: "notblank", Message: "Name is required"},
	}},
	{Field: "email", Checks: []validation.Check{
		{Tag: "email", Message: "Valid email is required"},
	}},
	{Field: "password", Checks: validation.PasswordChecks("Password")},
}

var loginRules = validation.RuleSet{
	{Field: "email", Checks: []validation.Check{
		{Tag: "email", Message: "Valid email is required"},
	}},
	{Field: "password", Checks: []validation.Check{
		{Tag: "required", Message: "Password is required"},
	}},
}
