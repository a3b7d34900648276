package http

import (
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

const msgInternal = "Internal server error"

// handleError renders errors as {"error": "..."}. Errors that are not
// *echo.HTTPError are logged and reported as 500 without detail.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := msgInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		fields := []zap.Field{zap.Error(err)}
		var pe *reflection.PersistenceError
		if errors.As(err, &pe) {
			fields = append(fields, zap.String("op", pe.Op), zap.String("path", pe.Path),
				zap.Bool("corrupt", errors.Is(err, reflection.ErrCorruptDocument)))
		}
		s.logger.Error(c.Request().Context(), "request failed", fields...)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, ErrorResponse{Error: msg})
	}
	if werr != nil {
		s.logger.Warn(c.Request().Context(), "failed to write error response", zap.Error(werr))
	}
}
