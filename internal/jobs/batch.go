package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/nutrition"
	"recipehub/internal/providers/openai"
)

// customIDPrefix namespaces batch lines so output files from other pipelines
// can never be demultiplexed into nutrition jobs.
const customIDPrefix = "nutrition_job:"

// BatchNutritionStore is the persistence surface of the batch pipeline.
type BatchNutritionStore interface {
	ListQueued(ctx context.Context, limit int) ([]repo.QueuedNutritionJob, error)
	PromptInputs(ctx context.Context, recipeID int64, servings int) (nutrition.Inputs, error)
	MarkSubmitted(ctx context.Context, jobIDs []int64, batchID string, submittedAt time.Time) (int64, error)
	SubmittedBatchIDs(ctx context.Context, max int) ([]string, error)
	FailBatch(ctx context.Context, batchID, reason string) (int, error)
	FinalizeFromBatch(ctx context.Context, jobID int64, batchID string, outcome repo.BatchOutcome) (bool, error)
}

// BatchAPI is the provider surface of the batch pipeline.
type BatchAPI interface {
	UploadBatchFile(ctx context.Context, filename string, jsonl []byte) (string, error)
	CreateBatch(ctx context.Context, inputFileID, completionWindow string) (openai.Batch, error)
	RetrieveBatch(ctx context.Context, batchID string) (openai.Batch, error)
	FileContent(ctx context.Context, fileID string) ([]byte, error)
}

// BatchSubmitter bundles queued nutrition jobs into one provider batch.
type BatchSubmitter struct {
	Store  BatchNutritionStore
	API    BatchAPI
	Model  string
	Logger zerolog.Logger
	Now    func() time.Time
}

// SubmitSummary reports one submission run.
type SubmitSummary struct {
	Candidates int
	Submitted  int
	BatchID    string
	DryRun     bool
}

type batchRequestLine struct {
	CustomID string          `json:"custom_id"`
	Method   string          `json:"method"`
	URL      string          `json:"url"`
	Body     openai.ChatBody `json:"body"`
}

// Submit serializes up to limit queued jobs as JSONL, uploads the file,
// creates the batch and flips the jobs to submitted. The status flip is
// all-or-nothing; jobs claimed by a synchronous worker in the meantime stay
// untouched and simply miss this batch.
func (s *BatchSubmitter) Submit(ctx context.Context, limit int, completionWindow string, dryRun bool) (SubmitSummary, error) {
	queued, err := s.Store.ListQueued(ctx, limit)
	if err != nil {
		return SubmitSummary{}, err
	}
	summary := SubmitSummary{Candidates: len(queued), DryRun: dryRun}
	if len(queued) == 0 {
		return summary, nil
	}

	var buf bytes.Buffer
	jobIDs := make([]int64, 0, len(queued))
	for _, job := range queued {
		inputs, err := s.Store.PromptInputs(ctx, job.RecipeID, job.Servings)
		if err != nil {
			return summary, fmt.Errorf("prompt inputs for job %d: %w", job.JobID, err)
		}
		line := batchRequestLine{
			CustomID: customIDPrefix + strconv.FormatInt(job.JobID, 10),
			Method:   "POST",
			URL:      "/v1/chat/completions",
			Body:     openai.BuildChatBody(nutrition.BuildChatRequest(s.Model, inputs)),
		}
		encoded, err := json.Marshal(line)
		if err != nil {
			return summary, fmt.Errorf("encode batch line for job %d: %w", job.JobID, err)
		}
		buf.Write(encoded)
		buf.WriteByte('\n')
		jobIDs = append(jobIDs, job.JobID)
	}

	if dryRun {
		s.Logger.Info().Int("candidates", len(jobIDs)).Msg("dry run, batch not submitted")
		return summary, nil
	}

	filename := fmt.Sprintf("nutrition_jobs-%s.jsonl", uuid.NewString())
	fileID, err := s.API.UploadBatchFile(ctx, filename, buf.Bytes())
	if err != nil {
		return summary, fmt.Errorf("upload batch file: %w", err)
	}
	batch, err := s.API.CreateBatch(ctx, fileID, completionWindow)
	if err != nil {
		return summary, fmt.Errorf("create batch: %w", err)
	}

	updated, err := s.Store.MarkSubmitted(ctx, jobIDs, batch.ID, s.now())
	if err != nil {
		return summary, fmt.Errorf("mark jobs submitted: %w", err)
	}
	if updated != int64(len(jobIDs)) {
		s.Logger.Warn().Int64("updated", updated).Int("expected", len(jobIDs)).
			Msg("some jobs were claimed before submission and stay out of the batch")
	}
	summary.Submitted = int(updated)
	summary.BatchID = batch.ID
	s.Logger.Info().Str("batch_id", batch.ID).Int("submitted", summary.Submitted).Msg("nutrition batch submitted")
	return summary, nil
}

func (s *BatchSubmitter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BatchPoller resolves submitted batches: in-progress batches are left alone,
// failed batches fail all their jobs, completed batches are demultiplexed line
// by line through the idempotent finalize path.
type BatchPoller struct {
	Store  BatchNutritionStore
	API    BatchAPI
	Logger zerolog.Logger
	Now    func() time.Time
}

// PollSummary reports one polling run.
type PollSummary struct {
	Batches    int
	InProgress int
	Succeeded  int
	Failed     int
	Skipped    int
}

// Poll inspects the given batch, or up to maxBatches submitted batches when
// batchID is empty.
func (p *BatchPoller) Poll(ctx context.Context, batchID string, maxBatches int) (PollSummary, error) {
	var batchIDs []string
	if batchID != "" {
		batchIDs = []string{batchID}
	} else {
		ids, err := p.Store.SubmittedBatchIDs(ctx, maxBatches)
		if err != nil {
			return PollSummary{}, err
		}
		batchIDs = ids
	}

	summary := PollSummary{Batches: len(batchIDs)}
	for _, id := range batchIDs {
		if err := p.pollBatch(ctx, id, &summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (p *BatchPoller) pollBatch(ctx context.Context, batchID string, summary *PollSummary) error {
	logger := p.Logger.With().Str("batch_id", batchID).Logger()

	batch, err := p.API.RetrieveBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("retrieve batch %s: %w", batchID, err)
	}

	switch {
	case openai.BatchInProgress(batch.Status):
		logger.Info().Str("status", batch.Status).Msg("batch still in progress")
		summary.InProgress++
		return nil
	case openai.BatchTerminalFailure(batch.Status):
		failed, err := p.Store.FailBatch(ctx, batchID, "batch_"+batch.Status)
		if err != nil {
			return err
		}
		logger.Warn().Str("status", batch.Status).Int("jobs_failed", failed).Msg("batch failed")
		summary.Failed += failed
		return nil
	case batch.Status != openai.BatchStatusCompleted:
		logger.Warn().Str("status", batch.Status).Msg("unknown batch status, leaving jobs submitted")
		summary.InProgress++
		return nil
	}

	if batch.OutputFileID == "" {
		failed, err := p.Store.FailBatch(ctx, batchID, "batch_completed_without_output")
		if err != nil {
			return err
		}
		summary.Failed += failed
		return nil
	}

	output, err := p.API.FileContent(ctx, batch.OutputFileID)
	if err != nil {
		return fmt.Errorf("download batch output %s: %w", batch.OutputFileID, err)
	}
	if err := p.demux(ctx, logger, batchID, output, summary); err != nil {
		return err
	}

	// Jobs that never made it into the output file (error file entries,
	// truncated output) are still submitted at this point.
	leftover, err := p.Store.FailBatch(ctx, batchID, "missing_from_batch_output")
	if err != nil {
		return err
	}
	if leftover > 0 {
		logger.Warn().Int("jobs_failed", leftover).Msg("jobs missing from batch output")
		summary.Failed += leftover
	}
	return nil
}

type batchResponseLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int `json:"status_code"`
		Body       struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *BatchPoller) demux(ctx context.Context, logger zerolog.Logger, batchID string, output []byte, summary *PollSummary) error {
	for _, raw := range bytes.Split(output, []byte("\n")) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		var line batchResponseLine
		if err := json.Unmarshal(raw, &line); err != nil {
			logger.Warn().Err(err).Msg("unreadable batch output line")
			continue
		}
		jobID, ok := parseCustomID(line.CustomID)
		if !ok {
			logger.Warn().Str("custom_id", line.CustomID).Msg("foreign custom_id in batch output")
			continue
		}

		succeeded, err := p.Store.FinalizeFromBatch(ctx, jobID, batchID, func(recipeID int64, servings int) ([]byte, string) {
			content, failReason := lineContent(&line)
			if failReason != "" {
				return nil, failReason
			}
			result, parseErr := nutrition.Parse(content, servings, p.now())
			if parseErr != nil {
				return nil, parseErr.Error()
			}
			return result, ""
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyFinalized) {
				summary.Skipped++
				continue
			}
			return err
		}
		if succeeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return nil
}

func lineContent(line *batchResponseLine) (string, string) {
	if line.Error != nil && line.Error.Message != "" {
		return "", "batch_line_error: " + line.Error.Message
	}
	if line.Response == nil {
		return "", "batch_line_error: missing response"
	}
	if line.Response.StatusCode != 200 {
		return "", fmt.Sprintf("batch_line_error: status %d", line.Response.StatusCode)
	}
	if len(line.Response.Body.Choices) == 0 {
		return "", "batch_line_error: empty completion"
	}
	content := strings.TrimSpace(line.Response.Body.Choices[0].Message.Content)
	if content == "" {
		return "", "batch_line_error: empty completion"
	}
	return content, ""
}

func (p *BatchPoller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func parseCustomID(customID string) (int64, bool) {
	if !strings.HasPrefix(customID, customIDPrefix) {
		return 0, false
	}
	jobID, err := strconv.ParseInt(strings.TrimPrefix(customID, customIDPrefix), 10, 64)
	if err != nil || jobID <= 0 {
		return 0, false
	}
	return jobID, true
}
