package middleware

import (
	"context"

	"github.com/ensdomains/ens-avatar-fallback/common/helper"
	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"github.com/gin-gonic/gin"
)

func RequestId() func(c *gin.Context) {
	return func(c *gin.Context) {
		// honour a caller-provided X-Request-Id, otherwise generate one
		id := c.GetHeader(logger.RequestIdKey)
		if id == "" {
			id = helper.GenRequestID()
		}
		c.Set(logger.RequestIdKey, id)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIdKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(logger.RequestIdKey, id)
		c.Next()
	}
}
