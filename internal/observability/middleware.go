package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TransferSource reports receive-side progress for request logs.
type TransferSource interface {
	TransferSummary() (handled int, lastRemote string)
}

// HTTPMiddleware logs and counts every request on the status endpoint,
// tagging each log line with how many transfers the receiver has handled.
// Successful requests log at debug so periodic scrapes stay quiet.
func HTTPMiddleware(logger zerolog.Logger, node string, src TransferSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(node, c.Request.Method, route, status, elapsed)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}
		if src != nil {
			handled, remote := src.TransferSummary()
			event = event.Int("transfers_handled", handled)
			if remote != "" {
				event = event.Str("last_remote", remote)
			}
		}
		event.
			Str("route", route).
			Str("method", c.Request.Method).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("status request")
	}
}
