package task

import "github.com/fastygo/taskapi/pkg/validation"

var createRules = validation.RuleSet{
	{Field: "title", Checks: []validation.Check{
		{Tag: "notblank", Message: "Title is required"},
	}},
	{Field: "status", Optional: true, Checks: []validation.Check{
		{Tag: validation.StatusTag, Message: "Invalid status"},
	}},
}

var updateRules = validation.RuleSet{
	{Field: "title", Optional: true, Checks: []validation.Check{
		{Tag: "notblank", Message: "Title cannot be empty"},
	}},
	{Field: "status", Optional: true, Checks: []validation.Check{
		{Tag: validation.StatusTag, Message: "Invalid status"},
	}},
}
