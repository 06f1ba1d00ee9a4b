package controller

import (
	"net/http"
	"os"

	"github.com/ensdomains/ens-avatar-fallback/common"
	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/gin-gonic/gin"
)

func GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"version":       common.Version,
			"start_time":    common.StartTime,
			"system_name":   config.SystemName,
			"engine":        config.StabilityEngine,
			"bucket":        config.AvatarBucketName,
			"redis_enabled": common.RedisEnabled,
			"debug_enabled": config.DebugEnabled,
			"has_api_key":   config.StabilityAPIKey != "",
			"has_store":     os.Getenv("S3_ENDPOINT") != "",
		},
	})
}
