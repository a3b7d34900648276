package http

import (
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	msgRequired = "Name and reflection are required"
	msgNotFound = "Reflection not found"
	msgDeleted  = "Reflection deleted successfully"
)

// CreateRequest is the request body for POST /api/reflections.
type CreateRequest struct {
	Name       string `json:"name"`
	Reflection string `json:"reflection"`
}

// MessageResponse is the response body for a successful delete.
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleList(c echo.Context) error {
	items, err := s.store.List(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []reflection.Reflection{}
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Debug(ctx, "invalid create request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, msgRequired)
	}
	if err := reflection.Validate(req.Name, req.Reflection); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgRequired)
	}

	r, err := s.store.Create(ctx, req.Name, req.Reflection)
	if errors.Is(err, reflection.ErrValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, msgRequired)
	}
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "reflection created", zap.String("id", r.ID))
	s.RefreshGauge(ctx)
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}

	s.logger.Info(ctx, "reflection deleted", zap.String("id", id))
	s.RefreshGauge(ctx)
	return c.JSON(http.StatusOK, MessageResponse{Message: msgDeleted})
}
