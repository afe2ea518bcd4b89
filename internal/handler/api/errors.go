package api

import (
	"github.com/labstack/echo/v4"

	"TransWatcher/internal/domain/models"
	xhttp "TransWatcher/pkg/http"
	xlogger "TransWatcher/pkg/logger"
)

// toAppError maps domain error kinds onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	msg := models.MessageOf(err)
	switch models.KindOf(err) {
	case models.KindInput, models.KindEmptyBatch:
		return xhttp.BadRequestError(msg).WithError(err)
	case models.KindNotFound:
		return xhttp.NotFoundError(msg).WithError(err)
	case models.KindUpstream:
		if models.IsTransport(err) {
			return xhttp.ServiceUnavailableError(msg).WithError(err)
		}
		return xhttp.NotFoundError(msg).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func fail(c echo.Context, l *xlogger.Logger, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		l.Error(op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	} else {
		l.Debug(op+" rejected", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
