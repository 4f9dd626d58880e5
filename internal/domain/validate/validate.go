// Package validate runs go-playground/validator over tagged input structs and
// reports every failed rule keyed by its JSON path, so a caller can return all
// bad fields of a payload at once.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

type Errors map[string]string

// Add keeps the first message recorded for a field.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

func (e Errors) Empty() bool { return len(e) == 0 }

var (
	engineOnce sync.Once
	engine     *validator.Validate
)

// Engine returns the shared validator used by the use cases.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		v := validator.New()
		if err := Configure(v); err != nil {
			panic(err)
		}
		engine = v
	})
	return engine
}

// Configure installs field naming and the custom rules on v. gin's binding
// engine goes through here as well, so both layers report the same paths.
func Configure(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)

	rules := map[string]validator.Func{
		"notbefore": notBefore,
		"otpcode":   otpCode,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation tag %q: %w", tag, err)
		}
	}
	return nil
}

// Struct validates s. Rule violations come back as Errors; the error result is
// only set when s cannot be validated at all.
func Struct(s any) (Errors, error) {
	err := Engine().Struct(s)
	if err == nil {
		return Errors{}, nil
	}
	if fields, ok := FromError(err); ok {
		return fields, nil
	}
	return nil, err
}

// Var checks a single value against tag.
func Var(value any, tag string) error {
	return Engine().Var(value, tag)
}

// FromError maps validator.ValidationErrors to Errors. It reports false for
// any other error.
func FromError(err error) (Errors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(Errors, len(verrs))
	for _, fe := range verrs {
		fields.Add(fieldPath(fe), Message(fe))
	}
	return fields, true
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// fieldPath drops the top-level struct name from the namespace:
// "CreateProfileInput.educations[0].start_date" -> "educations[0].start_date".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", words(fe.Param()))
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "url":
		return "must be a valid URL"
	case "http_url":
		return "must be an absolute http(s) URL"
	case "notbefore":
		return fmt.Sprintf("must not be before the %s", words(fe.Param()))
	case "otpcode":
		return "must be a 6 digit code"
	default:
		return fmt.Sprintf("failed on '%s' rule", fe.Tag())
	}
}

// words turns a Go field name into lower-case words: "StartDate" -> "start date".
func words(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// notBefore holds a YYYY-MM-DD field to be on or after the sibling field named
// by the param. Unparseable dates are left to the datetime rule.
func notBefore(fl validator.FieldLevel) bool {
	end, err := time.Parse(DateLayout, fl.Field().String())
	if err != nil {
		return true
	}
	other := reflect.Indirect(fl.Parent()).FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return true
	}
	start, err := time.Parse(DateLayout, other.String())
	if err != nil {
		return true
	}
	return !end.Before(start)
}

func otpCode(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if len(value) != 6 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseDate parses a value that has already passed the datetime rule.
func ParseDate(value string) time.Time {
	t, _ := time.Parse(DateLayout, value)
	return t
}

// ParseOptionalDate is ParseDate for nullable fields.
func ParseOptionalDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	t := ParseDate(*value)
	return &t
}
