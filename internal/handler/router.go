package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/curio/internal/middleware"
)

type RouterDeps struct {
	Query       *QueryHandler
	History     *HistoryHandler
	Suggestions *SuggestionHandler
	AskInterval time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/ask", middleware.RateLimit(deps.AskInterval), deps.Query.Ask)
	api.GET("/current", deps.Query.Current)
	api.DELETE("/current", deps.Query.Reset)

	api.GET("/history", deps.History.List)
	api.GET("/history/:id", deps.History.Get)
	api.PUT("/history/:id/feedback", deps.History.Feedback)
	api.GET("/history/:id/render", deps.History.Render)

	api.GET("/suggestions", deps.Suggestions.List)
}
