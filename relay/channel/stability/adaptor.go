package stability

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

func requestURL(baseURL, engineId string) string {
	return fmt.Sprintf("%s/v1/generation/%s/image-to-image", baseURL, engineId)
}

// buildRequestBody serializes a GenerationRequest as the multipart form the
// v1 image-to-image endpoint expects. Returns the body and its content type.
func buildRequestBody(request *GenerationRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if request.Init != nil {
		part, err := writer.CreateFormFile("init_image", "init.png")
		if err != nil {
			return nil, "", err
		}
		if _, err = part.Write(request.Init.Data); err != nil {
			return nil, "", err
		}
	}

	for i, prompt := range request.TextPrompts {
		if err := writer.WriteField(fmt.Sprintf("text_prompts[%d][text]", i), prompt.Text); err != nil {
			return nil, "", err
		}
		if err := writer.WriteField(fmt.Sprintf("text_prompts[%d][weight]", i), strconv.FormatFloat(prompt.Weight, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}

	fields := map[string]string{
		"init_image_mode":     "STEP_SCHEDULE",
		"step_schedule_start": strconv.FormatFloat(request.ScheduleStart, 'f', -1, 64),
		"cfg_scale":           strconv.FormatFloat(request.CfgScale, 'f', -1, 64),
		"sampler":             request.Sampler,
		"samples":             strconv.Itoa(request.Samples),
		"steps":               strconv.Itoa(request.Steps),
		"seed":                strconv.FormatUint(uint64(request.Seed()), 10),
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func setupRequestHeader(req *http.Request, apiKey, contentType string) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
}
