package openai

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"recipehub/internal/domain"
)

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewClientMissingAPIKey(t *testing.T) {
	t.Parallel()
	_, err := NewClient(Options{APIKey: "  "})
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestChatJSON(t *testing.T) {
	t.Parallel()
	var captured ChatBody
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(200, `{
			"choices": [{"message": {"content": "{\"ok\":true}"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
		}`), nil
	})

	content, usage, err := client.ChatJSON(t.Context(), ChatRequest{
		Model:       "gpt-4o-mini",
		System:      "system prompt",
		User:        "user prompt",
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("ChatJSON returned error: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
	if usage == nil || usage.TotalTokens != 30 {
		t.Fatalf("usage = %+v, want total 30", usage)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("response_format = %q, want json_object", captured.ResponseFormat.Type)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
}

func TestChatJSONEmptyCompletion(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"choices": [{"message": {"content": "  "}}]}`), nil
	})
	_, _, err := client.ChatJSON(t.Context(), ChatRequest{Model: "gpt-4o-mini"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestChatJSONAPIError(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(429, `{"error": {"message": "rate limited"}}`), nil
	})
	_, _, err := client.ChatJSON(t.Context(), ChatRequest{Model: "gpt-4o-mini"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != 429 || apiErr.Message != "rate limited" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestGenerateImageFallbackOnVerificationRestriction(t *testing.T) {
	t.Parallel()
	want := []byte("png-bytes")
	var models []string
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		model, _ := body["model"].(string)
		models = append(models, model)
		if model == "gpt-image-1" {
			if _, ok := body["response_format"]; ok {
				t.Fatal("gpt-image-1 request must not carry response_format")
			}
			return jsonResponse(403, `{"error": {"message": "organization must be verified"}}`), nil
		}
		if body["response_format"] != "b64_json" {
			t.Fatalf("response_format = %v, want b64_json", body["response_format"])
		}
		encoded := base64.StdEncoding.EncodeToString(want)
		return jsonResponse(200, `{"data": [{"b64_json": "`+encoded+`"}]}`), nil
	})

	data, err := client.GenerateImage(t.Context(), ImageRequest{
		Model:         "gpt-image-1",
		FallbackModel: "dall-e-3",
		Prompt:        "a dish",
		Size:          "1024x1024",
	})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("data = %q", data)
	}
	if len(models) != 2 || models[0] != "gpt-image-1" || models[1] != "dall-e-3" {
		t.Fatalf("models = %v", models)
	}
}

func TestGenerateImageURLFallback(t *testing.T) {
	t.Parallel()
	want := []byte("downloaded")
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/v1/images/generations" {
			return jsonResponse(200, `{"data": [{"url": "https://api.openai.com/v1/hosted/img.png"}]}`), nil
		}
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(want))}, nil
	})
	data, err := client.GenerateImage(t.Context(), ImageRequest{Model: "dall-e-3", Prompt: "a dish"})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("data = %q", data)
	}
}

func TestUploadBatchFile(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/files" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("purpose"); got != "batch" {
			t.Fatalf("purpose = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "nutrition_jobs.jsonl" {
			t.Fatalf("filename = %q", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "{\"a\":1}\n" {
			t.Fatalf("content = %q", content)
		}
		return jsonResponse(200, `{"id": "file-123"}`), nil
	})

	fileID, err := client.UploadBatchFile(t.Context(), "nutrition_jobs.jsonl", []byte("{\"a\":1}\n"))
	if err != nil {
		t.Fatalf("UploadBatchFile returned error: %v", err)
	}
	if fileID != "file-123" {
		t.Fatalf("fileID = %q", fileID)
	}
}

func TestCreateBatch(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		var body createBatchBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Endpoint != "/v1/chat/completions" {
			t.Fatalf("endpoint = %q", body.Endpoint)
		}
		if body.CompletionWindow != "24h" {
			t.Fatalf("completion_window = %q", body.CompletionWindow)
		}
		return jsonResponse(200, `{"id": "batch-1", "status": "validating", "input_file_id": "file-123"}`), nil
	})

	batch, err := client.CreateBatch(t.Context(), "file-123", "24h")
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}
	if batch.ID != "batch-1" || !BatchInProgress(batch.Status) {
		t.Fatalf("batch = %+v", batch)
	}
}

func TestBatchStatusClassification(t *testing.T) {
	t.Parallel()
	for _, status := range []string{BatchStatusValidating, BatchStatusInProgress, BatchStatusFinalizing, BatchStatusQueued} {
		if !BatchInProgress(status) {
			t.Fatalf("BatchInProgress(%q) = false", status)
		}
	}
	for _, status := range []string{BatchStatusFailed, BatchStatusExpired, BatchStatusCanceled} {
		if !BatchTerminalFailure(status) {
			t.Fatalf("BatchTerminalFailure(%q) = false", status)
		}
	}
	if BatchInProgress(BatchStatusCompleted) || BatchTerminalFailure(BatchStatusCompleted) {
		t.Fatal("completed must be neither in progress nor a failure")
	}
}
