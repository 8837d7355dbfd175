package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Every handler failure leaves as an *echo.HTTPError built by one of these
// helpers; HTTPErrorHandler turns it into {"error": msg}.

func validationError(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func forbiddenError(msg string) error {
	return echo.NewHTTPError(http.StatusForbidden, msg)
}

func notFoundError(msg string) error {
	return echo.NewHTTPError(http.StatusNotFound, msg)
}

var errSelfDeletion = echo.NewHTTPError(http.StatusBadRequest, "you cannot delete your own account")

// unhandled hides err from the client and keeps it for the log.
func unhandled(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// HTTPErrorHandler renders errors as JSON.  Anything that is not an
// *echo.HTTPError is a 500; 5xx responses never expose their cause, which
// is logged with the request id instead.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if code < http.StatusInternalServerError {
				if s, ok := he.Message.(string); ok {
					msg = s
				} else {
					msg = http.StatusText(code)
				}
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", code,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, echo.Map{"error": msg})
		}
		if werr != nil {
			logger.Error("write error response", "error", werr)
		}
	}
}
