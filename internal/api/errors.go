package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// errorHandler renders every handler error as an APIResponse envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := models.Error("Internal server error")

	var httpErr *echo.HTTPError
	switch {
	case models.IsGuardRejected(err):
		status = http.StatusConflict
		body = models.Rejected(err.Error())
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		body = models.Error(err.Error())
	case errors.Is(err, models.ErrEmptyContent),
		errors.Is(err, models.ErrContentTooLong),
		errors.Is(err, models.ErrEmptyName),
		errors.Is(err, models.ErrInvalidMessageRole):
		status = http.StatusBadRequest
		body = models.Error(err.Error())
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body = models.Error(fmt.Sprint(httpErr.Message))
	default:
		slog.Error("Server: unhandled error", "error", err, "method", c.Request().Method, "path", c.Path())
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		slog.Error("Server: failed to write error response", "error", err)
	}
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func ok(c echo.Context, result interface{}) error {
	return c.JSON(http.StatusOK, models.Success(result))
}

func created(c echo.Context, result interface{}) error {
	return c.JSON(http.StatusCreated, models.Success(result))
}
