// Package api exposes the newsroom over HTTP with gin.
package api

import (
	"net/http"

	"newsdesk/internal/newsroom"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Options configures the router.
type Options struct {
	IngestRPS   float64
	IngestBurst int
	Metrics     http.Handler
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *newsroom.Service, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware())
	SetupRoutes(router, NewHandler(svc), opts)
	return router
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, h *Handler, opts Options) {
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/stats", h.Stats)
		api.GET("/search", h.Search)
		api.POST("/summary", h.Summary)

		articles := api.Group("/articles")
		{
			articles.GET("", h.ListArticles)
			articles.POST("", h.CreateArticle)
			articles.GET("/:id", h.GetArticle)
			articles.PUT("/:id", h.UpdateArticle)
			articles.DELETE("/:id", h.DeleteArticle)
			articles.POST("/:id/analysis", h.Analyze)
		}

		burst := opts.IngestBurst
		if burst <= 0 {
			burst = 1
		}
		limit := rate.Inf
		if opts.IngestRPS > 0 {
			limit = rate.Limit(opts.IngestRPS)
		}
		ingest := api.Group("/ingest", RateLimit(rate.NewLimiter(limit, burst)))
		{
			ingest.POST("", h.Ingest)
			ingest.POST("/:source", h.Ingest)
		}
	}
}
