package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	OTPMin = 100000
	OTPMax = 999999
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("otp_code", validateOTPCode); err != nil {
		panic(fmt.Sprintf("register otp_code validation: %v", err))
	}
}

// Validator exposes the shared instance so other packages validate with the same rules.
func Validator() *validator.Validate {
	return validate
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateOTPCode(fl validator.FieldLevel) bool {
	code := fl.Field().Int()
	return code >= OTPMin && code <= OTPMax
}

// FieldErrors converts validator errors into a nested map keyed by JSON field
// name. It returns nil when err is not a validation error.
func FieldErrors(err error) map[string]any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := map[string]any{}
	for _, fe := range validationErrors {
		path := strings.Split(fe.Namespace(), ".")
		if len(path) > 1 {
			path = path[1:]
		}
		setNested(out, path, fieldMessage(fe))
	}
	return out
}

// BindErrorDetails reports which field of a request body had the wrong JSON
// type. It returns nil for malformed JSON and other decode errors.
func BindErrorDetails(err error) map[string]any {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil
	}

	out := map[string]any{}
	setNested(out, strings.Split(typeErr.Field, "."), typeMessage(typeErr.Type))
	return out
}

func typeMessage(t reflect.Type) string {
	if t == nil {
		return "Invalid value."
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	default:
		return "Invalid value."
	}
}

func setNested(dst map[string]any, path []string, msg string) {
	for i, key := range path {
		if i == len(path)-1 {
			dst[key] = msg
			return
		}
		next, ok := dst[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			dst[key] = next
		}
		dst = next
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "otp_code":
		return "Enter a valid 6-digit code."
	case "uuid":
		return "Must be a valid UUID."
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}
