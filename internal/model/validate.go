package model

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"campo"`
	Message string `json:"mensagem"`
}

// ValidationErrors is returned when a form fails validation. Nothing is
// persisted for a form that fails validation.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, " ")
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns v as an error, or nil when v is empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks the struct tags of a form and returns ValidationErrors
// with Portuguese messages.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating form: %w", err)
	}

	var out ValidationErrors
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: linePrefix(fe.Namespace()) + message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo '%s' é obrigatório.", fe.Field())
	case "contains":
		return fmt.Sprintf("O campo '%s' deve conter um e-mail válido.", fe.Field())
	case "min":
		return "Preencha pelo menos um item."
	case "gt":
		return fmt.Sprintf("O campo '%s' deve ser maior que zero.", fe.Field())
	case "gte":
		return fmt.Sprintf("O campo '%s' não pode ser negativo.", fe.Field())
	case "oneof":
		return fmt.Sprintf("O campo '%s' tem um valor inválido.", fe.Field())
	default:
		return fmt.Sprintf("O campo '%s' é inválido.", fe.Field())
	}
}

// linePrefix turns "IssuanceForm.Itens[2].Quantidade" into "Linha 3: ".
func linePrefix(namespace string) string {
	open := strings.LastIndex(namespace, "[")
	end := strings.LastIndex(namespace, "]")
	if open < 0 || end < open {
		return ""
	}
	n, err := strconv.Atoi(namespace[open+1 : end])
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Linha %d: ", n+1)
}
