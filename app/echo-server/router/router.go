package router

import (
	"freshMarket/internal/middleware"
	"freshMarket/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRecoRoutes(api *echo.Group, handler *rest.RecoHandler) {
	reco := api.Group("/recommendations", middleware.IdentityMiddleware())
	reco.GET("", handler.Recommend)
	reco.POST("/feedback", handler.Feedback)
	reco.POST("/events", handler.Event)
}

func SetRecoAdminRoutes(api *echo.Group, handler *rest.RecoAdminHandler) {
	admin := api.Group("/admin/reco")
	admin.GET("/weights", handler.GetWeights)
	admin.PUT("/weights", handler.UpdateWeights)
	admin.GET("/boosts", handler.GetBoosts)
	admin.PUT("/boosts", handler.UpdateBoosts)
	admin.GET("/exploration", handler.GetExploration)
	admin.PUT("/exploration", handler.UpdateExploration)
}
