package http

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/khoahotran/talent-forge/internal/domain/validate"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators gives gin's binding engine the same field naming and
// custom rules as the use-case validator. Binding only checks request shape;
// field rules live on the use-case inputs so one pass reports every field.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = validate.Configure(v)
	})
	return registerErr
}

// bindError turns a ShouldBind failure into an AppError: rule violations carry
// per-field messages, anything else is a malformed body.
func bindError(err error) *apperror.AppError {
	fields, ok := validate.FromError(err)
	if !ok {
		return apperror.NewInvalidInput("request body is malformed", err)
	}
	return apperror.NewValidation(fields)
}
