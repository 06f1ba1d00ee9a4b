package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"github.com/ensdomains/ens-avatar-fallback/relay/cache"
	"github.com/ensdomains/ens-avatar-fallback/relay/node"
	"github.com/gin-gonic/gin"
)

const (
	messageNotSupported  = "Not supported"
	messageInternalError = "An error occurred"
)

// avatarProvider is the cache seam; tests substitute it.
type avatarProvider interface {
	GetOrCreate(ctx context.Context, nodeId string) (*cache.StoredObject, error)
}

var avatarCache avatarProvider

func getAvatarCache() avatarProvider {
	if avatarCache == nil {
		avatarCache = cache.Default()
	}
	return avatarCache
}

// RelayAvatar serves GET/HEAD /?node=<id>. An invalid or missing node is
// rejected before any storage or generation work happens.
func RelayAvatar(c *gin.Context) {
	nodeId := c.Query("node")
	if !node.IsValid(nodeId) {
		c.String(http.StatusMethodNotAllowed, messageNotSupported)
		return
	}

	obj, err := getAvatarCache().GetOrCreate(c.Request.Context(), nodeId)
	if err != nil {
		logger.Errorf(c.Request.Context(), "failed to serve avatar for %s: %s", nodeId, err.Error())
		c.String(http.StatusInternalServerError, messageInternalError)
		return
	}
	defer obj.Body.Close()

	c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", obj.ContentType)
		c.Status(http.StatusOK)
		return
	}
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}

// NotSupported answers every method or path outside the avatar contract.
func NotSupported(c *gin.Context) {
	c.String(http.StatusMethodNotAllowed, messageNotSupported)
}
