package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ppiankov/factlens/internal/telemetry"
	"go.uber.org/zap"
)

func newRequestID() string {
	return uuid.NewString()
}

// requestLogger attaches a request-scoped logger carrying the request id
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		logger := s.logger.With(zap.String("request_id", id))

		req := c.Request()
		c.SetRequest(req.WithContext(telemetry.WithLogger(req.Context(), logger)))
		return next(c)
	}
}
