package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// fail writes the storefront error envelope
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   msg,
	})
}

// queryLimit parses ?limit=, falling back to def for missing or invalid values
func queryLimit(c echo.Context, def, max int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
