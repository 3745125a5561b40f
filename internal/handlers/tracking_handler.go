package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/bargainbot/internal/tracking"
)

// RegisterTrackingRoutes registers delivery tracking routes. Without
// cfg.Trackers a private registry is used.
func RegisterTrackingRoutes(r *gin.Engine, cfg HandlerConfig) {
	cfg.defaults()
	reg := cfg.Trackers
	if reg == nil {
		reg = tracking.NewRegistry(tracking.WithLogger(cfg.Logger))
	}

	r.GET("/milestones", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"milestones": tracking.Milestones()})
	})

	r.POST("/tracking/:orderId", func(c *gin.Context) {
		tr, created := reg.Start(c.Param("orderId"))
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, tr.State())
	})

	r.GET("/tracking/:orderId", func(c *gin.Context) {
		tr, ok := reg.Get(c.Param("orderId"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "tracker_not_found"})
			return
		}
		c.JSON(http.StatusOK, tr.State())
	})

	// Server-sent events: one "state" event per milestone until delivery.
	r.GET("/tracking/:orderId/events", func(c *gin.Context) {
		tr, ok := reg.Get(c.Param("orderId"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "tracker_not_found"})
			return
		}
		states, unsubscribe := tr.Subscribe()
		defer unsubscribe()

		ctx := c.Request.Context()
		c.Stream(func(w io.Writer) bool {
			select {
			case st, ok := <-states:
				if !ok {
					return false
				}
				c.SSEvent("state", st)
				return !st.Delivered
			case <-ctx.Done():
				return false
			}
		})
	})

	r.DELETE("/tracking/:orderId", func(c *gin.Context) {
		reg.Stop(c.Param("orderId"))
		c.Status(http.StatusNoContent)
	})
}
