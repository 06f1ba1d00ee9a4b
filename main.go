package main

import (
	"os"
	"strconv"

	"github.com/ensdomains/ens-avatar-fallback/common"
	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"github.com/ensdomains/ens-avatar-fallback/middleware"
	"github.com/ensdomains/ens-avatar-fallback/router"
	"github.com/gin-gonic/gin"
)

func main() {
	common.Init()
	logger.SetupLogger()
	logger.SysLog(config.SystemName + " " + common.Version + " started")

	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.DebugEnabled {
		logger.SysLog("running in debug mode")
	}
	if config.StabilityAPIKey == "" {
		logger.SysError("STABILITY_API_KEY is not set, generation requests will fail")
	}

	err := common.InitRedisClient()
	if err != nil {
		logger.FatalLog("failed to initialize Redis: " + err.Error())
	}

	server := gin.New()
	server.Use(middleware.PanicRecover())
	server.Use(middleware.RequestId())
	server.Use(middleware.CORS())
	middleware.SetUpLogger(server)

	router.SetRouter(server)

	port := os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	logger.SysLog("listening on port " + port)
	err = server.Run(":" + port)
	if err != nil {
		logger.FatalLog("failed to start HTTP server: " + err.Error())
	}
}
