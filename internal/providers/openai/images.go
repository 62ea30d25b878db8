package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ImageRequest describes one hero-image generation. FallbackModel is tried
// when the primary model is rejected with an account-verification restriction.
type ImageRequest struct {
	Model         string
	FallbackModel string
	Prompt        string
	Size          string
}

type imageGenerateBody struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// ErrImageMissingData means the provider returned neither inline bytes nor a
// hosted URL.
var ErrImageMissingData = errors.New("openai: image response has no b64_json or url")

// GenerateImage returns raw PNG bytes for the prompt. Inline base64 output is
// preferred; a hosted URL is downloaded as a fallback for models that ignore
// the response_format hint.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	data, err := c.generateImageWithModel(ctx, req.Model, req)
	if err != nil && req.FallbackModel != "" && req.FallbackModel != req.Model && isVerificationRestricted(err) {
		return c.generateImageWithModel(ctx, req.FallbackModel, req)
	}
	return data, err
}

func (c *Client) generateImageWithModel(ctx context.Context, model string, req ImageRequest) ([]byte, error) {
	body := imageGenerateBody{
		Model:  model,
		Prompt: req.Prompt,
		Size:   req.Size,
	}
	// gpt-image-1 always returns b64 and rejects the response_format param.
	if model != "gpt-image-1" {
		body.ResponseFormat = "b64_json"
	}

	var out imageResponse
	if err := c.postJSON(ctx, "/images/generations", body, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, ErrImageMissingData
	}

	first := out.Data[0]
	if first.B64JSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode b64_json: %w", err)
		}
		return decoded, nil
	}
	if first.URL != "" {
		return c.downloadImage(ctx, first.URL)
	}
	return nil, ErrImageMissingData
}

func (c *Client) downloadImage(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image download: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "image download failed"}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrImageMissingData
	}
	return data, nil
}

// isVerificationRestricted detects the provider rejecting a model because the
// account has not completed organization verification.
func isVerificationRestricted(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode != http.StatusForbidden && apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "verif") || strings.Contains(msg, "must be approved")
}
