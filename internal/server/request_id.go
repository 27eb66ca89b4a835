package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ckiertz4887/website-roast/internal/core"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware ensures every request carries an ID.
// A client-supplied X-Request-ID is kept; otherwise a UUID is generated.
// The ID is echoed in the response and attached to the request context for logging.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
				req.Header.Set(requestIDHeader, id)
			}
			c.Response().Header().Set(requestIDHeader, id)
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), id)))
			return next(c)
		}
	}
}
