// Package validator wraps go-playground/validator for request payloads.
// Failures are reported against the json field names clients actually send,
// not the Go struct fields.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	setup    sync.Once
	validate *validator.Validate
)

// ValidationError is a single failed rule on a single field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors is the error returned when one or more rules fail.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, failure := range v {
		rule := failure.Tag
		if failure.Param != "" {
			rule += "=" + failure.Param
		}
		parts[i] = failure.Field + " failed on " + rule
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct runs the tag rules on s and returns ValidationErrors when
// any fail. Non-rule errors (unsupported types) pass through untouched.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, ValidationError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

// RegisterValidation adds a custom rule under the given tag.
func RegisterValidation(tag string, fn validator.Func) error {
	return instance().RegisterValidation(tag, fn)
}

func instance() *validator.Validate {
	setup.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// jsonFieldName resolves the reported field name from the json tag, so a
// failure on ConfirmPassword reads "confirm_password" in the response.
func jsonFieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" {
		return fld.Name
	}
	if comma := strings.Index(tag, ","); comma != -1 {
		tag = tag[:comma]
	}
	if tag == "" || tag == "-" {
		return fld.Name
	}
	return tag
}
