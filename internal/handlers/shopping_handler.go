package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/bargainbot/internal/validation"
)

// RegisterShoppingRoutes registers market research and shopping-list routes.
func RegisterShoppingRoutes(r *gin.Engine, cfg HandlerConfig) {
	cfg.defaults()
	if cfg.Shopping == nil {
		return
	}

	r.POST("/research", func(c *gin.Context) {
		var req validation.ResearchRequest
		if err := validation.BindAndValidate(c, &req, cfg.Validator); err != nil {
			return
		}
		products, err := cfg.Shopping.ResearchProduct(c.Request.Context(), req.ProductDescription)
		if err != nil {
			writeOracleError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	})

	r.POST("/shopping-list", func(c *gin.Context) {
		var req validation.ShoppingListRequest
		if err := validation.BindAndValidate(c, &req, cfg.Validator); err != nil {
			return
		}
		items, err := cfg.Shopping.SuggestShoppingList(c.Request.Context(), req.Prompt)
		if err != nil {
			writeOracleError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	})
}
