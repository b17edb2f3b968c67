package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// envelope is the shape of every response body.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Count   *int     `json:"count,omitempty"`
	Valid   *bool    `json:"valid,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func list[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: items, Count: &count})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Error: message})
}
