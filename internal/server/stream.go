package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/sitekeeper/internal/metrics"
)

const keepaliveInterval = 10 * time.Second

// handleStream follows the site log over Server-Sent Events. Each appended
// line arrives as a "data:" event; a comment ping goes out every ten seconds
// so proxies keep the connection open. The stream ends when the client
// disconnects.
func (r *Router) handleStream(c *gin.Context) {
	name := c.Param("name")
	lines, errs, err := r.mgr.Follow(c.Request.Context(), name)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	metrics.AddLogWatcher(1)
	defer metrics.AddLogWatcher(-1)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case line, ok := <-lines:
			if !ok {
				return false
			}
			c.SSEvent("message", line)
			return true
		case err, ok := <-errs:
			if !ok {
				return false
			}
			c.SSEvent("error", err.Error())
			return false
		case <-keepalive.C:
			_, werr := io.WriteString(w, ": keepalive\n\n")
			return werr == nil
		}
	})
}
