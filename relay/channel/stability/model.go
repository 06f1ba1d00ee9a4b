package stability

const (
	FinishReasonSuccess         = "SUCCESS"
	FinishReasonError           = "ERROR"
	FinishReasonContentFiltered = "CONTENT_FILTERED"
)

const SamplerKDPMPP2M = "K_DPMPP_2M"

// TextPrompt is one weighted prompt line; negative weights discourage.
type TextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// InitImage is the init prompt: a fixed reference image the diffusion starts
// from.
type InitImage struct {
	Data  []byte
	Mime  string
	Magic string
}

// GenerationRequest carries everything one generation call needs. It is built
// once per avatar request; Seeds is the only field mutated afterwards, the
// content-filter retry loop appends one entry per reissued attempt and the
// newest entry is the seed actually transmitted.
// Output dimensions are not part of the request: the image-to-image endpoint
// takes them from the init image.
type GenerationRequest struct {
	EngineId      string
	Samples       int
	Steps         int
	CfgScale      float64
	Sampler       string
	ScheduleStart float64
	Seeds         []uint32
	Init          *InitImage
	TextPrompts   []TextPrompt
}

// Seed returns the seed for the next attempt, the most recently appended one.
func (r *GenerationRequest) Seed() uint32 {
	return r.Seeds[len(r.Seeds)-1]
}

type GenerationArtifact struct {
	Base64       string `json:"base64"`
	FinishReason string `json:"finishReason"`
	Seed         uint32 `json:"seed"`
}

type GenerationResponse struct {
	Artifacts []GenerationArtifact `json:"artifacts"`
}

type SDErr struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}
