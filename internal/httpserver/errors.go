package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/transport"
)

// ErrorHandler renders every error as {"msg": ...}. Internal causes are logged, never sent.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	l := logging.FromContext(c.Request().Context())

	status, msg := http.StatusInternalServerError, ""
	var (
		ae *apperr.Error
		he *echo.HTTPError
	)
	if errors.As(err, &ae) {
		status = apperr.Status(err)
		msg = apperr.Message(err)
	} else if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(status)
		default:
			msg = fmt.Sprint(m)
		}
	} else {
		status = apperr.Status(err)
		msg = apperr.Message(err)
	}

	if status >= http.StatusInternalServerError {
		l.Error("internal_error", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, transport.MsgResponse{Msg: msg})
	}
	if err != nil {
		l.Error("error_response_failed", "error", err)
	}
}

func badBody(err error) error {
	return apperr.Wrap(apperr.Validation, "invalid body", err)
}
