package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type registrationPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := registrationPayload{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2secret",
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := registrationPayload{
		Name:     "",
		Email:    "invalid",
		Password: "short",
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	// Field names come from the json tag, not the Go field name.
	foundEmail := false
	for _, v := range vErrs {
		if v.Field == "email" {
			foundEmail = true
		}
	}
	if !foundEmail {
		t.Fatal("expected email field to be present in validation errors")
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("learnhub", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "learnhub"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"learnhub"`
	}

	if err := ValidateStruct(custom{Value: "learnhub"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "other"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}
