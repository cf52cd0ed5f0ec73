package validation

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	ProjectID string `validate:"omitempty,max=5,excludesall=/"`
}

func TestEchoValidator(t *testing.T) {
	v := &EchoValidator{}

	assert.NoError(t, v.Validate(&sample{}))
	assert.NoError(t, v.Validate(&sample{ProjectID: "P1"}))

	for _, bad := range []string{"P1/x", "toolong"} {
		err := v.Validate(&sample{ProjectID: bad})
		var he *echo.HTTPError
		if assert.True(t, errors.As(err, &he), bad) {
			assert.Equal(t, http.StatusBadRequest, he.Code)
		}
	}
}
