// Package prompt turns a node identifier into the fixed generation request
// every avatar is drawn from: one init-image prompt plus five weighted text
// prompts over the words the node selects.
package prompt

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"github.com/ensdomains/ens-avatar-fallback/relay/channel/stability"
	"github.com/ensdomains/ens-avatar-fallback/relay/node"
)

//go:embed circle.png
var circlePNG []byte

const (
	portraitPromptFormat  = "A simple vector icon of a portrait of a %s, head centered in frame"
	describedPromptFormat = "described as %s %s %s"
	avatarPrompt          = "profile picture, twitter avatar, instagram avatar, Ethereum NFT"
	negativeStylePrompt   = "3D, instagram logo, twitter logo, ugly, new to this, saturated, facing camera, grey background, alamy, stock photo, JPEG compression, dull, boring, low contrast"
	negativePrompt        = "watermark, blurry, monochrome, bordered, framed, human, low poly, striped background, long shadow"
)

// Build constructs the generation request for nodeId. Deterministic for a
// given node: the words, seed and every parameter depend only on the
// identifier and fixed constants.
func Build(ctx context.Context, nodeId string) *stability.GenerationRequest {
	words := node.Words(nodeId)

	request := &stability.GenerationRequest{
		EngineId:      config.StabilityEngine,
		Samples:       1,
		Steps:         30,
		CfgScale:      12,
		Sampler:       stability.SamplerKDPMPP2M,
		ScheduleStart: 0.85,
		Seeds:         []uint32{node.Seed(nodeId)},
		Init: &stability.InitImage{
			Data:  circlePNG,
			Mime:  "image/png",
			Magic: "PNG",
		},
	}

	addText := func(text string, weight float64) {
		request.TextPrompts = append(request.TextPrompts, stability.TextPrompt{Text: text, Weight: weight})
		logger.Debugf(ctx, "prompt %q weight %v", text, weight)
	}

	addText(fmt.Sprintf(portraitPromptFormat, words.Animal), 1)
	addText(fmt.Sprintf(describedPromptFormat, words.Adverb, words.Adjective, words.Noun), 0.25)
	addText(avatarPrompt, 1)
	addText(negativeStylePrompt, -2)
	addText(negativePrompt, -5)

	return request
}
