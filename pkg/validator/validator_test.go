package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Medicine string `json:"medicine" validate:"required"`
}

type request struct {
	Email    string `json:"email" validate:"required,email"`
	When     string `json:"datetime" validate:"omitempty,apptime"`
	Lines    []line `json:"prescriptions" validate:"required,min=1,dive"`
	Internal string `json:"-" validate:"required"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestFieldsUseJSONNames(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(request{Email: "nope", When: "31/02/2025 at 10:00 am", Lines: []line{{}}})
	fields, ok := Fields(err)
	require.True(t, ok)

	assert.Equal(t, []FieldError{
		{Field: "email", Message: "must be a valid email address"},
		{Field: "datetime", Message: "must look like DD/MM/YYYY at H:MM am"},
		{Field: "prescriptions[0].medicine", Message: "is required"},
		{Field: "Internal", Message: "is required"},
	}, fields)
	assert.Equal(t, "email must be a valid email address; datetime must look like DD/MM/YYYY at H:MM am; prescriptions[0].medicine is required; Internal is required", Message(fields))
}

func TestAppTimeAcceptsValidValues(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(request{Email: "a@b.in", When: "15/06/2025 at 9:05 pm", Lines: []line{{Medicine: "x"}}, Internal: "x"})
	assert.NoError(t, err)
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	_, ok := Fields(assert.AnError)
	assert.False(t, ok)
}
