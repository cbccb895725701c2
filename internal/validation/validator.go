// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// idForbidden are the characters reserved by the store key layout.
const idForbidden = ":#/"

// FieldError is a single failed rule.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

func (e *FieldError) Field() string      { return e.field }
func (e *FieldError) Tag() string        { return e.tag }
func (e *FieldError) Param() string      { return e.param }
func (e *FieldError) Value() interface{} { return e.value }
func (e *FieldError) Error() string      { return e.message }

// Error collects every failed rule of one struct.
type Error struct {
	errors []FieldError
}

func (ve *Error) Errors() []FieldError {
	return ve.errors
}

func (ve *Error) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Fields returns the names of the fields that failed, in order.
func (ve *Error) Fields() []string {
	out := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		out = append(out, err.field)
	}
	return out
}

// Details renders the failures for the API error envelope.
func (ve *Error) Details() map[string]interface{} {
	if len(ve.errors) == 1 {
		err := ve.errors[0]
		return map[string]interface{}{
			"field": err.field,
			"tag":   err.tag,
		}
	}
	fields := make([]map[string]interface{}, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = map[string]interface{}{
			"field":   err.field,
			"tag":     err.tag,
			"message": err.message,
		}
	}
	return map[string]interface{}{"fields": fields}
}

// GetValidator returns the shared validator. Field names in errors follow the
// json tag so they match what API clients send.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("entity_id", validateEntityID)
	})
	return validate
}

// validateEntityID accepts identifiers that are safe to embed in store keys.
func validateEntityID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.TrimSpace(s) != "" && !strings.ContainsAny(s, idForbidden)
}

// ValidateStruct returns nil or an *Error describing every failed rule.
func ValidateStruct(s interface{}) *Error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	return convert(err, "")
}

// ValidateID checks a single room, user or candidate identifier.
func ValidateID(field, id string) *Error {
	err := GetValidator().Var(id, "required,max=128,entity_id")
	if err == nil {
		return nil
	}
	return convert(err, field)
}

// convert maps validator errors. name overrides the field name, which is
// empty for Var validations.
func convert(err error, name string) *Error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &Error{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		field := fe.Field()
		if name != "" {
			field = name
		}
		out[i] = FieldError{
			field:   field,
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translateError(fe, field),
		}
	}
	return &Error{errors: out}
}

var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"entity_id": "%s must not be blank or contain any of ':', '#', '/'",
}

var errorMessageWithParam = map[string]string{
	"oneof":       "%s must be one of: %s",
	"gte":         "%s must be greater than or equal to %s",
	"lte":         "%s must be less than or equal to %s",
	"gt":          "%s must be greater than %s",
	"lt":          "%s must be less than %s",
	"excludesall": "%s must not contain any of %q",
}

func translateError(fe validator.FieldError, field string) string {
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
