package query

import "fmt"

type ErrorContext string

const (
	ContextSelected  ErrorContext = "selected field"
	ContextFiltering ErrorContext = "filtering field"
	ContextOption    ErrorContext = "option"
)

// InputError is a caller mistake. These are collected, never returned as Go errors.
type InputError struct {
	Context   ErrorContext `json:"context"`
	FieldName string       `json:"fieldName"`
	Reason    string       `json:"reason"`
}

func (e InputError) Error() string {
	return fmt.Sprintf("%s '%s': %s", e.Context, e.FieldName, e.Reason)
}

// Messages formats errors for DomainResult.Errors.
func Messages(errs []InputError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
