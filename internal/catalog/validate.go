package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateDocument(doc *document) error {
	if err := structValidator.Struct(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describeValidation(err))
	}
	return normalize(doc)
}

// describeValidation renders the first few field errors as
// "jobs[2].parameters: required".
func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	const limit = 3
	parts := make([]string, 0, limit)
	for i, fe := range fieldErrs {
		if i == limit {
			parts = append(parts, fmt.Sprintf("and %d more", len(fieldErrs)-limit))
			break
		}
		field := fe.Namespace()
		if idx := strings.IndexByte(field, '.'); idx >= 0 {
			field = field[idx+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, field+": "+rule)
	}
	return strings.Join(parts, "; ")
}
