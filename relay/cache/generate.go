package cache

import (
	"context"

	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/ensdomains/ens-avatar-fallback/relay/channel/stability"
	"github.com/ensdomains/ens-avatar-fallback/relay/prompt"
)

// generateAvatar is the default miss path: prompt construction followed by
// one bounded-retry generation call.
func generateAvatar(ctx context.Context, nodeId string) ([]byte, error) {
	request := prompt.Build(ctx, nodeId)
	return stability.Generate(ctx, request, config.StabilityAPIKey)
}
