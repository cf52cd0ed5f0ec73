package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/portfolio/common/reconcile"
)

// ErrorResponse is the structured error body of every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func errorJSON(c echo.Context, status int, code string, err error) error {
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// projectStatus maps a per-project response to an HTTP status. Failed
// reconciles are 502 so webhook senders retry on their own schedule.
func projectStatus(resp reconcile.ProjectResponse) int {
	if !resp.Success {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// bindError turns echo's bind errors into the structured shape
func bindError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return c.JSON(he.Code, ErrorResponse{Error: msg, Code: "invalid_body"})
	}
	return errorJSON(c, http.StatusBadRequest, "invalid_body", err)
}
