// Package validator configures request validation (go-playground/validator)
// and turns its errors into messages users can act on.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-console/pkg/apptime"
)

// TagAppTime validates a "DD/MM/YYYY at H:MM am|pm" string.
const TagAppTime = "apptime"

// FieldError is one failed constraint, keyed by JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
	"max":      "is too long",
	"oneof":    "has an unsupported value",
	TagAppTime: "must look like DD/MM/YYYY at H:MM am",
}

// Register installs JSON field naming and the custom tags on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v.RegisterValidation(TagAppTime, func(fl validator.FieldLevel) bool {
		return apptime.Valid(fl.Field().String())
	})
}

// RegisterBinding configures gin's default binding validator.
func RegisterBinding() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding validator is not go-playground/validator")
	}
	return Register(v)
}

// Fields extracts field errors from a validation failure.
func Fields(err error) ([]FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %q validation", e.Tag())
		}
		out = append(out, FieldError{Field: fieldPath(e), Message: msg})
	}
	return out, true
}

// Message joins field errors into one sentence.
func Message(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read "prescriptions[0].medicine".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}
