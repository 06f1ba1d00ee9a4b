package router

import (
	"github.com/ensdomains/ens-avatar-fallback/controller"
	"github.com/gin-gonic/gin"
)

func SetRouter(router *gin.Engine) {
	router.GET("/", controller.RelayAvatar)
	router.HEAD("/", controller.RelayAvatar)

	apiRouter := router.Group("/api")
	{
		apiRouter.GET("/status", controller.GetStatus)
	}

	// everything outside the contract gets the fixed rejection
	router.HandleMethodNotAllowed = true
	router.NoMethod(controller.NotSupported)
	router.NoRoute(controller.NotSupported)
}
