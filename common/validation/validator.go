package validation

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// EchoValidator plugs go-playground/validator into echo's Validate hook
type EchoValidator struct {
	Validator *validator.Validate
}

// New returns a ready validator
func New() *EchoValidator {
	return &EchoValidator{Validator: validator.New()}
}

// Validate implements echo.Validator. Failures become 400 responses.
func (v *EchoValidator) Validate(i interface{}) error {
	if v.Validator == nil {
		v.Validator = validator.New()
	}
	if err := v.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}
