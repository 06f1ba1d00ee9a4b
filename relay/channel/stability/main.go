package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/ensdomains/ens-avatar-fallback/common/logger"
	"github.com/ensdomains/ens-avatar-fallback/relay/util"
	"github.com/pkg/errors"
)

var (
	// ErrGenerationFailed: the service reported a terminal failure, e.g.
	// exhausted credits.
	ErrGenerationFailed = errors.New("image could not be generated, you might not have enough credits")
	// ErrUnexpectedArtifact: the service returned something other than a PNG
	// image.
	ErrUnexpectedArtifact = errors.New("no image was returned")
	// ErrNoArtifact: the call succeeded but the artifact list never resolved
	// to an image.
	ErrNoArtifact = errors.New("generation ended without an image")
	// ErrContentFilterExhausted: every attempt was rejected by the content
	// filter.
	ErrContentFilterExhausted = errors.New("content filter rejected all generation attempts")
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// Generate runs the generation call for request, retrying with a fresh seed
// whenever the content filter rejects the output. At most
// config.MaxGenerateAttempts attempts are made; only content-filter
// rejections are retried, every other failure propagates immediately.
func Generate(ctx context.Context, request *GenerationRequest, apiKey string) ([]byte, error) {
	maxAttempts := config.MaxGenerateAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	initialSeed := request.Seed()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, filtered, err := doGenerate(ctx, request, apiKey)
		if err != nil {
			return nil, err
		}
		if !filtered {
			return data, nil
		}
		logger.Warnf(ctx, "content filter triggered on attempt %d/%d, retrying with a new seed", attempt, maxAttempts)
		request.Seeds = append(request.Seeds, initialSeed+uint32(attempt))
	}
	return nil, ErrContentFilterExhausted
}

// doGenerate performs one call. filtered reports a content-filter rejection,
// which the caller turns into a reissued attempt.
func doGenerate(ctx context.Context, request *GenerationRequest, apiKey string) (data []byte, filtered bool, err error) {
	body, contentType, err := buildRequestBody(request)
	if err != nil {
		return nil, false, errors.Wrap(err, "build request body failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL(config.StabilityBaseURL, request.EngineId), body)
	if err != nil {
		return nil, false, errors.Wrap(err, "new request failed")
	}
	setupRequestHeader(req, apiKey, contentType)

	resp, err := util.HTTPClient.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(err, "do request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var sdErr SDErr
		if json.Unmarshal(respBody, &sdErr) == nil && sdErr.Message != "" {
			logger.Errorf(ctx, "generation failed with status %d: %s (%s)", resp.StatusCode, sdErr.Message, sdErr.Name)
		} else {
			logger.Errorf(ctx, "generation failed with status %d", resp.StatusCode)
		}
		return nil, false, errors.Wrapf(ErrGenerationFailed, "status %d", resp.StatusCode)
	}

	var genResp GenerationResponse
	if err = json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, false, errors.Wrap(err, "decode response failed")
	}

	for _, artifact := range genResp.Artifacts {
		logger.Debugf(ctx, "artifact finish reason: %s", artifact.FinishReason)

		if artifact.FinishReason == FinishReasonContentFiltered {
			return nil, true, nil
		}

		data, err = base64.StdEncoding.DecodeString(artifact.Base64)
		if err != nil {
			return nil, false, errors.Wrap(ErrUnexpectedArtifact, err.Error())
		}
		if !bytes.HasPrefix(data, pngMagic) {
			return nil, false, errors.Wrap(ErrUnexpectedArtifact, fmt.Sprintf("artifact is not a PNG (finish reason: %s)", artifact.FinishReason))
		}
		return data, false, nil
	}
	return nil, false, ErrNoArtifact
}
