package stability

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

func testRequest() *GenerationRequest {
	return &GenerationRequest{
		EngineId:      "stable-diffusion-512-v2-1",
		Samples:       1,
		Steps:         30,
		CfgScale:      12,
		Sampler:       SamplerKDPMPP2M,
		ScheduleStart: 0.85,
		Seeds:         []uint32{43690},
		Init:          &InitImage{Data: testPNG, Mime: "image/png", Magic: "PNG"},
		TextPrompts: []TextPrompt{
			{Text: "a portrait", Weight: 1},
			{Text: "watermark", Weight: -5},
		},
	}
}

// withStubService points the client at a local server for one test.
func withStubService(t *testing.T, maxAttempts int, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	prevURL, prevAttempts := config.StabilityBaseURL, config.MaxGenerateAttempts
	config.StabilityBaseURL = server.URL
	config.MaxGenerateAttempts = maxAttempts
	t.Cleanup(func() {
		config.StabilityBaseURL = prevURL
		config.MaxGenerateAttempts = prevAttempts
		server.Close()
	})
	return server
}

func writeArtifacts(w http.ResponseWriter, artifacts ...GenerationArtifact) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GenerationResponse{Artifacts: artifacts})
}

func TestGenerateSuccess(t *testing.T) {
	calls := 0
	withStubService(t, 5, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/generation/stable-diffusion-512-v2-1/image-to-image", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "43690", r.FormValue("seed"))
		assert.Equal(t, "a portrait", r.FormValue("text_prompts[0][text]"))
		assert.Equal(t, "-5", r.FormValue("text_prompts[1][weight]"))
		assert.Equal(t, "0.85", r.FormValue("step_schedule_start"))
		assert.Equal(t, SamplerKDPMPP2M, r.FormValue("sampler"))

		_, _, err := r.FormFile("init_image")
		assert.NoError(t, err)

		writeArtifacts(w, GenerationArtifact{
			Base64:       base64.StdEncoding.EncodeToString(testPNG),
			FinishReason: FinishReasonSuccess,
			Seed:         43690,
		})
	})

	data, err := Generate(context.Background(), testRequest(), "test-key")
	require.NoError(t, err)
	assert.Equal(t, testPNG, data)
	assert.Equal(t, 1, calls)
}

func TestGenerateContentFilterRetry(t *testing.T) {
	calls := 0
	seeds := []string{}
	withStubService(t, 5, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.NoError(t, r.ParseMultipartForm(32<<20))
		seeds = append(seeds, r.FormValue("seed"))

		if calls == 1 {
			writeArtifacts(w, GenerationArtifact{FinishReason: FinishReasonContentFiltered})
			return
		}
		writeArtifacts(w, GenerationArtifact{
			Base64:       base64.StdEncoding.EncodeToString(testPNG),
			FinishReason: FinishReasonSuccess,
		})
	})

	request := testRequest()
	data, err := Generate(context.Background(), request, "test-key")
	require.NoError(t, err)
	assert.Equal(t, testPNG, data)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []uint32{43690, 43691}, request.Seeds)
	assert.NotEqual(t, seeds[0], seeds[1], "retry should use a fresh seed")
}

func TestGenerateContentFilterExhausted(t *testing.T) {
	calls := 0
	withStubService(t, 3, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeArtifacts(w, GenerationArtifact{FinishReason: FinishReasonContentFiltered})
	})

	request := testRequest()
	_, err := Generate(context.Background(), request, "test-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentFilterExhausted)
	assert.Equal(t, 3, calls)
	assert.Len(t, request.Seeds, 4)
}

func TestGenerateServiceFailure(t *testing.T) {
	withStubService(t, 5, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(SDErr{Name: "insufficient_balance", Message: "not enough credits"})
	})

	_, err := Generate(context.Background(), testRequest(), "test-key")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
}

func TestGenerateNoArtifact(t *testing.T) {
	withStubService(t, 5, func(w http.ResponseWriter, r *http.Request) {
		writeArtifacts(w)
	})

	_, err := Generate(context.Background(), testRequest(), "test-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoArtifact)
}

func TestGenerateUnexpectedArtifact(t *testing.T) {
	withStubService(t, 5, func(w http.ResponseWriter, r *http.Request) {
		writeArtifacts(w, GenerationArtifact{
			Base64:       base64.StdEncoding.EncodeToString([]byte("GIF89a not a png")),
			FinishReason: FinishReasonSuccess,
		})
	})

	_, err := Generate(context.Background(), testRequest(), "test-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedArtifact)
}

func TestGenerateFirstImageResolves(t *testing.T) {
	withStubService(t, 5, func(w http.ResponseWriter, r *http.Request) {
		writeArtifacts(w,
			GenerationArtifact{
				Base64:       base64.StdEncoding.EncodeToString(testPNG),
				FinishReason: FinishReasonSuccess,
			},
			GenerationArtifact{
				Base64:       base64.StdEncoding.EncodeToString([]byte("ignored")),
				FinishReason: FinishReasonSuccess,
			},
		)
	})

	data, err := Generate(context.Background(), testRequest(), "test-key")
	require.NoError(t, err)
	assert.Equal(t, testPNG, data)
}
