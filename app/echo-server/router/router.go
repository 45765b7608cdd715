package router

import (
	"github.com/labstack/echo/v4"

	"myGreenMarketPersonalization/internal/rest"
)

func SetPersonalizationRoutes(api *echo.Group, handler *rest.PersonalizationHandler, authRequired echo.MiddlewareFunc) {
	p := api.Group("/personalization", authRequired)

	p.GET("/settings", handler.GetSettings)
	p.PUT("/settings", handler.UpdateSettings)
	p.GET("/profile", handler.GetProfile)
	p.GET("/categories", handler.GetPreferredCategories)
	p.GET("/most-viewed", handler.GetMostViewed)
	p.GET("/recent-views", handler.GetRecentViews)
	p.GET("/recommendations", handler.GetRecommendations)
	p.GET("/sections", handler.GetSections)

	p.POST("/events/view", handler.RecordView)
	p.POST("/metrics", handler.UpdateMetrics)
	p.POST("/feedback", handler.Feedback)

	p.DELETE("/data", handler.ClearData)
}
