package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
	"tourbook/shared/constant"
	"tourbook/shared/failure"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required": "{field} is required",
	"gt":       "{field} must be greater than {param}",
	"gte":      "{field} must be greater than or equal to {param}",
	"lte":      "{field} must be less than or equal to {param}",
	"min":      "{field} must be at least {param}",
	"max":      "{field} must be at most {param}",
	"oneof":    "{field} must be one of {param}",
	"email":    "{field} must be a valid email address",
	"uuid":     "{field} must be a valid uuid",
	"date":     "{field} must be a date in YYYY-MM-DD format",
	"notblank": "{field} must not be blank",
}

var validate = newValidate()

func newValidate() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())

	// Report fields by their JSON name, the name clients actually send.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	rules := map[string]val.Func{
		"empty":    func(fl val.FieldLevel) bool { return fl.Field().IsZero() },
		"date":     isDate,
		"notblank": isNotBlank,
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

func isDate(fl val.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, err := time.Parse(constant.DateOnlyFormat, str)

	return err == nil
}

func isNotBlank(fl val.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return !fl.Field().IsZero()
	}

	return strings.TrimSpace(str) != ""
}

// Validate decodes a JSON body into data and validates it. Every failure is
// an invalid argument carrying a message meant for the client.
func Validate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	return asFailure(validate.Struct(data))
}

func ValidateVar(field any, tag string) error {
	return asFailure(validate.Var(field, tag))
}

func asFailure(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrors val.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return failure.BadRequest(err) //nolint:wrapcheck
	}

	for _, fieldErr := range fieldErrors {
		if tmpl, ok := messages[fieldErr.Tag()]; ok {
			msg := strings.NewReplacer("{field}", fieldErr.Field(), "{param}", fieldErr.Param()).Replace(tmpl)

			return failure.BadRequestFromString(msg) //nolint:wrapcheck
		}
	}

	return failure.BadRequestFromString(fieldErrors.Error()) //nolint:wrapcheck
}
