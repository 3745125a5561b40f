package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
	"github.com/imrishuroy/bargainbot/internal/negotiation"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

// RegisterNegotiationRoutes registers negotiation, history and preference routes.
func RegisterNegotiationRoutes(r *gin.Engine, cfg HandlerConfig) {
	cfg.defaults()

	if cfg.Orchestrator != nil {
		r.POST("/negotiations", func(c *gin.Context) {
			var req negotiation.Request
			if err := validation.BindAndValidate(c, &req, cfg.Validator); err != nil {
				return
			}

			res, err := cfg.Orchestrator.Negotiate(c.Request.Context(), req)
			if err != nil {
				if validation.WriteError(c, err) {
					return
				}
				incr(c.Request.Context(), cfg, metrics.NegotiationFailed, nil)
				cfg.Logger.Error("error during negotiation",
					zap.String("request_id", logging.RequestIDFrom(c)),
					zap.Error(err))
				_ = c.Error(err)
				c.JSON(http.StatusBadGateway, gin.H{
					"error":  "negotiation_failed",
					"detail": negotiation.FailureMessage,
				})
				return
			}
			incr(c.Request.Context(), cfg, metrics.NegotiationSucceeded, nil)
			c.JSON(http.StatusOK, res)
		})
	}

	if cfg.Desk != nil {
		sessions := cfg.Desk.Sessions()

		r.POST("/sessions/:sid/negotiations", func(c *gin.Context) {
			var req negotiation.Request
			if err := validation.BindAndValidate(c, &req, cfg.Validator); err != nil {
				return
			}
			rec, err := cfg.Desk.Submit(c.Request.Context(), c.Param("sid"), req)
			if err != nil {
				if validation.WriteError(c, err) {
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "submit_failed"})
				return
			}
			c.Header("Location", "/sessions/"+c.Param("sid")+"/negotiations/"+rec.ID)
			c.JSON(http.StatusAccepted, rec)
		})

		r.GET("/sessions/:sid/negotiations", func(c *gin.Context) {
			list := []negotiation.Record{}
			if h, ok := sessions.Lookup(c.Param("sid")); ok {
				list = h.List()
			}
			c.JSON(http.StatusOK, gin.H{"negotiations": list})
		})

		r.GET("/sessions/:sid/negotiations/:id", func(c *gin.Context) {
			h, ok := sessions.Lookup(c.Param("sid"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
				return
			}
			rec, ok := h.Get(c.Param("id"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
				return
			}
			c.JSON(http.StatusOK, rec)
		})

		r.DELETE("/sessions/:sid/negotiations", func(c *gin.Context) {
			sessions.Drop(c.Param("sid"))
			c.Status(http.StatusNoContent)
		})
	}

	if cfg.Preferences != nil {
		r.PUT("/preferences", func(c *gin.Context) {
			var p negotiation.Preferences
			if err := c.ShouldBindJSON(&p); err != nil {
				c.JSON(http.StatusOK, negotiation.PreferenceOutcome{
					Success: false,
					Message: negotiation.InvalidPreferencesMessage,
				})
				return
			}
			out := cfg.Preferences.Update(c.Request.Context(), p)
			if out.Success {
				incr(c.Request.Context(), cfg, metrics.PreferencesUpdated, map[string]string{"aggressiveness": p.Aggressiveness})
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
