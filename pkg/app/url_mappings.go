package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bioscanq/scanq/internal/controllers"
	"github.com/bioscanq/scanq/internal/middleware"
)

func (app *Application) SetupMappings() {
	listTools := controllers.NewListToolsController(app.Dispatcher)
	callTool := controllers.NewCallToolController(app.Dispatcher)

	v1 := app.Engine.Group("/v1/scanq")
	v1.Use(
		middleware.AuthMiddleware(app.Validator),
		middleware.RateLimitToolCalls(app.RateLimiter, app.Config.RateLimit.Tools),
	)
	v1.GET("/tools", listTools.Handle)
	v1.POST("/tools/call", callTool.Handle)

	app.Engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
