package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	SKURegex     = regexp.MustCompile(`^[A-Z0-9-]+$`)
	HTTPURLRegex = regexp.MustCompile(`^https?://.+`)
)

// ValidationError describe la primera regla violada por un producto.
// Errors contiene todas las violaciones encontradas.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
	Errors  []FieldError
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "Product validation failed: " + strings.Join(msgs, ", ")
}

// Validator valida los datos de entrada de un producto
type Validator struct {
	v *validator.Validate
}

// NewValidator crea el validador con las reglas propias del catálogo
func NewValidator() (*Validator, error) {
	v := validator.New()

	// Usar los nombres JSON en los errores
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("sku", validateSKU); err != nil {
		return nil, fmt.Errorf("register sku validator: %w", err)
	}
	if err := v.RegisterValidation("httpurl", validateHTTPURL); err != nil {
		return nil, fmt.Errorf("register httpurl validator: %w", err)
	}
	if err := v.RegisterValidation("enum", validateEnum); err != nil {
		return nil, fmt.Errorf("register enum validator: %w", err)
	}

	return &Validator{v: v}, nil
}

// MustNewValidator es como NewValidator pero entra en pánico si falla el registro
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate valida un ProductInput o un ProductUpdate ya normalizado
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := fieldPath(fe)
		out.Errors = append(out.Errors, FieldError{
			Field:   field,
			Rule:    fe.Tag(),
			Message: ValidationErrorMessage(field, fe),
		})
	}
	out.Field = out.Errors[0].Field
	out.Rule = out.Errors[0].Rule
	out.Message = out.Errors[0].Message
	return out
}

// fieldPath devuelve la ruta del campo sin el nombre del struct raíz,
// p. ej. "images[0].url"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// ValidationErrorMessage traduce un error de campo al mensaje del esquema
func ValidationErrorMessage(field string, fe validator.FieldError) string {
	switch {
	case field == "name" && (fe.Tag() == "required" || fe.Tag() == "min"):
		return "Product name is required"
	case field == "name" && fe.Tag() == "max":
		return "Name cannot exceed 100 characters"
	case field == "description" && (fe.Tag() == "required" || fe.Tag() == "min"):
		return "Product description is required"
	case field == "description" && fe.Tag() == "max":
		return "Description cannot exceed 500 characters"
	case field == "price" && fe.Tag() == "required":
		return "Product price is required"
	case field == "price":
		return "Price of small product must be between $0.01 and $100"
	case field == "sku" && (fe.Tag() == "required" || fe.Tag() == "min"):
		return "Product SKU is required"
	case field == "stock":
		return "Stock cannot be negative"
	case fe.Tag() == "enum":
		return fmt.Sprintf("%v is not a valid status", fe.Value())
	case fe.Tag() == "sku":
		return "SKU can only contain letters, numbers, and hyphens"
	case fe.Tag() == "httpurl":
		return "Please provide a valid URL"
	case fe.Tag() == "required":
		return fmt.Sprintf("Path `%s` is required", field)
	default:
		return "is invalid"
	}
}

func validateSKU(fl validator.FieldLevel) bool {
	return SKURegex.MatchString(fl.Field().String())
}

func validateHTTPURL(fl validator.FieldLevel) bool {
	return HTTPURLRegex.MatchString(fl.Field().String())
}

func validateEnum(fl validator.FieldLevel) bool {
	type Enum interface {
		Validate() error
	}

	value, ok := fl.Field().Interface().(Enum)
	if !ok {
		return false
	}

	return value.Validate() == nil
}
