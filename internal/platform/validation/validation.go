// Package validation checks request payloads with go-playground/validator
// and decodes request bodies, reporting every failure as an
// apperr.KindUnprocessable error that names the offending field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/pkg/cpf"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		// Report JSON member names, not Go field names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
			return cpf.Valid(fl.Field().String())
		}); err != nil {
			panic(err)
		}
		instance = v
	})
	return instance
}

// Struct validates s against its `validate` tags. The first failing field is
// returned as an unprocessable error.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return apperr.Unprocessable(fieldPath(fe.Namespace()), message(fe))
}

// CPF checks an identifier taken from a path or body field.
func CPF(field, value string) error {
	if _, err := cpf.Validate(value); err != nil {
		return apperr.Unprocessable(field, err.Error())
	}
	return nil
}

// fieldPath turns "CreateInput.Patient.cirurgia[0].nome" into
// "cirurgia[0].nome" by dropping Go type and embedded field names.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")[1:]
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if r := []rune(p)[0]; unicode.IsUpper(r) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "min":
		return fmt.Sprintf("deve ter no mínimo %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("deve ter no máximo %s caracteres", fe.Param())
	case "email":
		return "email inválido"
	case "cpf":
		return cpf.ErrFormat.Error()
	default:
		return "valor inválido"
	}
}
