package config

import (
	"os"
	"strings"
	"time"

	"github.com/ensdomains/ens-avatar-fallback/common/env"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Loaded first so every default below can be overridden from a local .env file.
var _ = godotenv.Load()

var SystemName = "ENS Avatar Fallback"
var ServiceName = env.String("SERVICE_NAME", "ens-avatar-fallback")
var InstanceId = strings.Split(uuid.New().String(), "-")[0]

var DebugEnabled = strings.ToLower(os.Getenv("DEBUG")) == "true"

// Stability AI
var StabilityAPIKey = os.Getenv("STABILITY_API_KEY")
var StabilityBaseURL = env.String("STABILITY_BASE_URL", "https://api.stability.ai")
var StabilityEngine = env.String("STABILITY_ENGINE", "stable-diffusion-512-v2-1")

// MaxGenerateAttempts bounds the content-filter retry loop: an attempt
// rejected by the NSFW classifier is reissued with a fresh seed until this
// many attempts have been spent.
var MaxGenerateAttempts = env.Int("MAX_GENERATE_ATTEMPTS", 5)

var RelayTimeout = env.Int("RELAY_TIMEOUT", 0) // unit is second

// Avatar bucket (S3-compatible, e.g. Cloudflare R2)
var AvatarBucketName = env.String("AVATAR_BUCKET_NAME", "generated-avatar")
var AvatarAccessKey = os.Getenv("S3_ACCESS_KEY")
var AvatarSecretKey = os.Getenv("S3_SECRET_KEY")
var AvatarEndpoint = os.Getenv("S3_ENDPOINT")
var AvatarRegion = env.String("S3_REGION", "auto")

// Hot-bytes cache TTL for Redis; 0 keeps entries until eviction, which is
// safe because a generated avatar never changes once stored.
var AvatarCacheSeconds = env.Int("AVATAR_CACHE_SECONDS", 0)
var AvatarCacheDuration = time.Duration(AvatarCacheSeconds) * time.Second
