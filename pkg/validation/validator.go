package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate

	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	slugRegex     = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func init() {
	Validate = validator.New()

	// Report fields by their JSON names so errors match the request payload
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom validators
	_ = Validate.RegisterValidation("currency_code", validateCurrencyCode)
	_ = Validate.RegisterValidation("slug", validateSlug)
	_ = Validate.RegisterValidation("route_kind", validateRouteKind)
	_ = Validate.RegisterValidation("cancelled_by", validateCancelledBy)
	_ = Validate.RegisterValidation("fraction", validateFraction)
}

// ValidationError collects field level validation failures keyed by field name
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator errors into a ValidationError
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.AddError(fieldPath(fe), describe(fe))
	}
	return ve
}

// AddError records a failure for a field, keeping the first message per field
func (e *ValidationError) AddError(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	if _, exists := e.Errors[field]; !exists {
		e.Errors[field] = message
	}
}

// HasErrors reports whether any failure was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Fields returns the failing field names in stable order
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, f := range e.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Errors[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// fieldPath strips the top level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "currency_code":
		return "must be a three letter ISO 4217 code"
	case "slug":
		return "must be lower case letters, digits or underscores"
	case "route_kind":
		return "must be one_way or round_trip"
	case "cancelled_by":
		return "must be customer, provider or system"
	case "fraction":
		return "must be between 0 and 1"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validateCurrencyCode checks for an upper case ISO 4217 code
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyRegex.MatchString(fl.Field().String())
}

// validateSlug checks identifiers such as service types and variant names
func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func validateRouteKind(fl validator.FieldLevel) bool {
	return oneOf(fl.Field().String(), "one_way", "round_trip")
}

func validateCancelledBy(fl validator.FieldLevel) bool {
	return oneOf(fl.Field().String(), "customer", "provider", "system")
}

// validateFraction checks a value lies in the closed range 0..1
func validateFraction(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v >= 0 && v <= 1
}

// oneOf reports whether item exactly matches one of the allowed values
func oneOf(item string, allowed ...string) bool {
	for _, s := range allowed {
		if s == item {
			return true
		}
	}
	return false
}
