package handler

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// NewValidator returns a validator that reports JSON field names and knows
// the jobid tag
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("jobid", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return jobIDPattern.MatchString(id) && id != "." && id != ".."
	})
	return v
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}

// missingFields lists fields that failed a required check, in struct order
func missingFields(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	var fields []string
	for _, e := range validationErrors {
		if strings.HasPrefix(e.Tag(), "required") {
			fields = append(fields, e.Field())
		}
	}
	return fields
}
