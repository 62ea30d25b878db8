package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Batch is the subset of the provider's batch object the poller needs.
type Batch struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	InputFileID  string `json:"input_file_id"`
	OutputFileID string `json:"output_file_id"`
	ErrorFileID  string `json:"error_file_id"`
}

// Batch lifecycle states as reported by the provider.
const (
	BatchStatusValidating = "validating"
	BatchStatusInProgress = "in_progress"
	BatchStatusFinalizing = "finalizing"
	BatchStatusQueued     = "queued"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
	BatchStatusExpired    = "expired"
	BatchStatusCanceled   = "canceled"
)

// BatchInProgress reports whether the batch is still being worked on and the
// poller should come back later.
func BatchInProgress(status string) bool {
	switch status {
	case BatchStatusValidating, BatchStatusInProgress, BatchStatusFinalizing, BatchStatusQueued:
		return true
	}
	return false
}

// BatchTerminalFailure reports whether the batch failed as a whole.
func BatchTerminalFailure(status string) bool {
	switch status {
	case BatchStatusFailed, BatchStatusExpired, BatchStatusCanceled:
		return true
	}
	return false
}

type uploadedFile struct {
	ID string `json:"id"`
}

// UploadBatchFile uploads a JSONL request document with purpose "batch" and
// returns the provider file id.
func (c *Client) UploadBatchFile(ctx context.Context, filename string, jsonl []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("purpose", "batch"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(jsonl); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	var out uploadedFile
	if err := c.do(httpReq, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

type createBatchBody struct {
	InputFileID      string `json:"input_file_id"`
	Endpoint         string `json:"endpoint"`
	CompletionWindow string `json:"completion_window"`
}

// CreateBatch submits an uploaded JSONL file as one batch against the chat
// completions endpoint.
func (c *Client) CreateBatch(ctx context.Context, inputFileID, completionWindow string) (Batch, error) {
	body := createBatchBody{
		InputFileID:      inputFileID,
		Endpoint:         "/v1/chat/completions",
		CompletionWindow: completionWindow,
	}
	var out Batch
	if err := c.postJSON(ctx, "/batches", body, &out); err != nil {
		return Batch{}, err
	}
	return out, nil
}

// RetrieveBatch fetches the current state of a batch.
func (c *Client) RetrieveBatch(ctx context.Context, batchID string) (Batch, error) {
	var out Batch
	if err := c.getJSON(ctx, "/batches/"+batchID, &out); err != nil {
		return Batch{}, err
	}
	return out, nil
}

// FileContent downloads the raw bytes of a provider file (the batch output
// JSONL document).
func (c *Client) FileContent(ctx context.Context, fileID string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}
