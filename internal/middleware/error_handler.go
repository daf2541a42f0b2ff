package middleware

import (
	"net/http"

	"freshMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the fallback for errors that escape the handlers.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error", "path", c.Path(), "error", err)
	}

	if err := c.JSON(code, echo.Map{"error": message}); err != nil {
		logger.Error("Failed to write error response", "error", err)
	}
}
