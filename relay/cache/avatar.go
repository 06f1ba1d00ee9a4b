// Package cache implements the read-through avatar cache: a hit serves the
// stored object untouched, a miss builds the prompt, runs generation, stores
// the result under the node key and serves the freshly generated bytes.
package cache

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/ensdomains/ens-avatar-fallback/common"
	"github.com/ensdomains/ens-avatar-fallback/common/cloudflare"
	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"golang.org/x/sync/singleflight"
)

const ContentTypePNG = "image/png"

// StoredObject is what the gateway serves: a byte stream, its size and
// content type, identical whether freshly generated or cache-retrieved.
type StoredObject struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStore is the persistence seam. Get reports found=false on a clean
// miss and reserves the error for real storage failures.
type ObjectStore interface {
	Get(ctx context.Context, key string) (obj *StoredObject, found bool, err error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// GenerateFunc produces the avatar bytes for a node on a cache miss.
type GenerateFunc func(ctx context.Context, nodeId string) ([]byte, error)

// AvatarCache coordinates lookups and miss-path generation. Concurrent
// misses for one node share a single upstream call via singleflight.
type AvatarCache struct {
	store    ObjectStore
	generate GenerateFunc
	group    singleflight.Group
}

func New(store ObjectStore, generate GenerateFunc) *AvatarCache {
	return &AvatarCache{
		store:    store,
		generate: generate,
	}
}

// GetOrCreate returns the avatar for nodeId, generating and storing it first
// if the store has no object under that key. A generation failure leaves the
// store untouched and propagates to the caller.
func (c *AvatarCache) GetOrCreate(ctx context.Context, nodeId string) (*StoredObject, error) {
	if common.RedisEnabled {
		if raw, err := common.RedisGet(redisKey(nodeId)); err == nil {
			return &StoredObject{
				Body:        io.NopCloser(strings.NewReader(raw)),
				Size:        int64(len(raw)),
				ContentType: ContentTypePNG,
			}, nil
		}
	}

	obj, found, err := c.store.Get(ctx, nodeId)
	if err != nil {
		return nil, err
	}
	if found {
		return obj, nil
	}

	v, err, _ := c.group.Do(nodeId, func() (interface{}, error) {
		// The closure outlives the first caller's request: coalesced
		// waiters must not fail because that one client disconnected.
		genCtx := context.WithoutCancel(ctx)
		data, err := c.generate(genCtx, nodeId)
		if err != nil {
			return nil, err
		}
		if err := c.store.Put(genCtx, nodeId, data, ContentTypePNG); err != nil {
			return nil, err
		}
		if common.RedisEnabled {
			if err := common.RedisSet(redisKey(nodeId), string(data), config.AvatarCacheDuration); err != nil {
				logger.SysError("Redis set avatar error: " + err.Error())
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	// Serve the locally generated bytes, not a re-read of storage.
	data := v.([]byte)
	return &StoredObject{
		Body:        io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: ContentTypePNG,
	}, nil
}

func redisKey(nodeId string) string {
	return "avatar:" + nodeId
}

// s3Store adapts the avatar bucket to the ObjectStore seam.
type s3Store struct{}

func (s3Store) Get(ctx context.Context, key string) (*StoredObject, bool, error) {
	obj, found, err := cloudflare.GetAvatar(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = ContentTypePNG
	}
	return &StoredObject{
		Body:        obj.Body,
		Size:        obj.Size,
		ContentType: contentType,
	}, true, nil
}

func (s3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return cloudflare.PutAvatar(ctx, key, data, contentType)
}

var (
	defaultOnce  sync.Once
	defaultCache *AvatarCache
)

// Default returns the process-wide cache wired to the avatar bucket and the
// Stability generation pipeline.
func Default() *AvatarCache {
	defaultOnce.Do(func() {
		defaultCache = New(s3Store{}, generateAvatar)
	})
	return defaultCache
}
