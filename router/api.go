package router

import (
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/controller"
	"github.com/apiprobe/apiprobe/middleware"
)

func SetApiRouter(server *gin.Engine) {
	apiRouter := server.Group("/api")
	{
		apiRouter.GET("/health", controller.GetHealth)
		apiRouter.POST("/fetch", controller.Fetch)
	}

	requestRouter := server.Group("/requests")
	requestRouter.Use(middleware.UserAuth())
	{
		requestRouter.POST("/:id/execute", controller.ExecuteStoredRequest)
	}
}
