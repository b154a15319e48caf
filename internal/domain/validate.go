// internal/domain/validate.go
package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var docIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Plausible release years for newly created movies.
const (
	MinMovieYear       = 1900
	MovieYearLookahead = 5
)

// NewValidator returns a validator with the custom tags used by request and path checks:
//
//	docid     - a document identifier (letters, digits, '-' and '_', at most 128 chars)
//	movieyear - an integer between MinMovieYear and the current year plus MovieYearLookahead
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("docid", func(fl validator.FieldLevel) bool {
		return docIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("movieyear", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= MinMovieYear && year <= int64(time.Now().Year()+MovieYearLookahead)
	})
	return v
}

// ValidationMessage renders a validation error as a short field-level message,
// e.g. "text is required; grade must be one of [F D C B A A+]".
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "movieyear":
		return fmt.Sprintf("%s must be between %d and %d", field, MinMovieYear, time.Now().Year()+MovieYearLookahead)
	case "docid":
		return field + " is not a valid id"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
