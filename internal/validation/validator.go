// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	namespace string
	tag       string
	param     string
	value     any
	message   string
}

// Namespace returns the dotted path of the failing field, e.g. "Config.Scan.PageSize".
func (e *FieldError) Namespace() string {
	return e.namespace
}

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "100" for "max=100").
func (e *FieldError) Param() string {
	return e.param
}

// Value returns the actual value that failed validation.
func (e *FieldError) Value() any {
	return e.value
}

// Error returns a human-readable error message.
func (e *FieldError) Error() string {
	return e.message
}

// Errors collects every field failure of one struct.
type Errors struct {
	fields []FieldError
}

// Fields returns the individual failures.
func (ve *Errors) Fields() []FieldError {
	return ve.fields
}

// Error joins the messages of every failure.
func (ve *Errors) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.fields))
	for i := range ve.fields {
		messages[i] = ve.fields[i].Error()
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance. It is safe for
// concurrent use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("regexp", isRegexp)
	})
	return validate
}

// isRegexp accepts strings that compile as RE2 patterns.
func isRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// ValidateStruct validates s using the singleton validator. It returns nil
// or an *Errors.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &Errors{fields: []FieldError{{namespace: "unknown", tag: "unknown", message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			namespace: fe.Namespace(),
			tag:       fe.Tag(),
			param:     fe.Param(),
			value:     fe.Value(),
			message:   translateError(fe),
		}
	}
	return &Errors{fields: fields}
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required":      "%s is required",
	"hostname_port": "%s must be a host:port address",
	"regexp":        "%s must be a valid regular expression",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof":       "%s must be one of: %s",
	"required_if": "%s is required when %s",
	"gte":         "%s must be greater than or equal to %s",
	"lte":         "%s must be less than or equal to %s",
	"gt":          "%s must be greater than %s",
	"lt":          "%s must be less than %s",
	"min":         "%s must be at least %s",
	"max":         "%s must be at most %s",
	"gtefield":    "%s must be greater than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Namespace()
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
