package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// observe records request metrics and a debug log line per request. The
// route template is used as label so ids do not explode cardinality.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		// let the error handler set the final status before it is recorded
		if herr := s.handleError(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	route := c.Route().Path
	status := c.Response().StatusCode()
	elapsed := time.Since(start)

	s.container.Metrics.RecordHTTPRequest(c.Method(), route, strconv.Itoa(status), elapsed)
	s.log.Debug(moduleServer, "request", map[string]interface{}{
		"method":   c.Method(),
		"route":    route,
		"status":   status,
		"duration": elapsed.String(),
	})
	return nil
}
