package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"github.com/gin-gonic/gin"
)

func PanicRecover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.SysError(fmt.Sprintf("panic detected: %v", err))
				logger.SysError(fmt.Sprintf("stacktrace from panic: %s", string(debug.Stack())))
				c.String(http.StatusInternalServerError, "An error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}
