package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks an incoming payload against its schema.
type Validator interface {
	Validate(v any) error
}

// ValidationError lists every schema violation found in a payload.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %s", strings.Join(e.Violations, "; "))
}

// StructValidator validates payloads using their `validate` struct tags.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateChange, Change{})
	return &StructValidator{v: v}
}

func (s *StructValidator) Validate(v any) error {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Violations: []string{err.Error()}}
	}
	res := &ValidationError{Violations: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		res.Violations = append(res.Violations, violation(fe))
	}
	return res
}

func violation(fe validator.FieldError) string {
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	if fe.Tag() == "change" {
		return fmt.Sprintf("%s: change has no operation", fe.Namespace())
	}
	return fmt.Sprintf("%s: value %v violates %s", fe.Namespace(), fe.Value(), rule)
}

func validateChange(sl validator.StructLevel) {
	c := sl.Current().Interface().(Change)
	if c.Kind() == ChangeNone {
		sl.ReportError(c, "Change", "Change", "change", "")
	}
}

// NopValidator accepts everything.
type NopValidator struct{}

func (NopValidator) Validate(any) error { return nil }
