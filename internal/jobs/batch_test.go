package jobs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/nutrition"
	"recipehub/internal/providers/openai"
)

type fakeBatchStore struct {
	queued     []repo.QueuedNutritionJob
	servings   map[int64]int
	submitted  map[int64]string
	batchIDs   []string
	batchFails map[string]string

	// jobs currently in submitted state per batch, keyed by job id.
	members map[string]map[int64]int64 // batchID -> jobID -> recipeID

	finalized map[int64]string // jobID -> "ok" or fail reason
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{
		servings:   map[int64]int{},
		submitted:  map[int64]string{},
		batchFails: map[string]string{},
		members:    map[string]map[int64]int64{},
		finalized:  map[int64]string{},
	}
}

func (s *fakeBatchStore) ListQueued(ctx context.Context, limit int) ([]repo.QueuedNutritionJob, error) {
	if len(s.queued) > limit {
		return s.queued[:limit], nil
	}
	return s.queued, nil
}

func (s *fakeBatchStore) PromptInputs(ctx context.Context, recipeID int64, servings int) (nutrition.Inputs, error) {
	return nutrition.Inputs{Servings: servings, IngredientsText: fmt.Sprintf("- recipe %d", recipeID)}, nil
}

func (s *fakeBatchStore) MarkSubmitted(ctx context.Context, jobIDs []int64, batchID string, submittedAt time.Time) (int64, error) {
	members := map[int64]int64{}
	for _, id := range jobIDs {
		s.submitted[id] = batchID
		members[id] = 100 + id
	}
	s.members[batchID] = members
	return int64(len(jobIDs)), nil
}

func (s *fakeBatchStore) SubmittedBatchIDs(ctx context.Context, max int) ([]string, error) {
	if len(s.batchIDs) > max {
		return s.batchIDs[:max], nil
	}
	return s.batchIDs, nil
}

func (s *fakeBatchStore) FailBatch(ctx context.Context, batchID, reason string) (int, error) {
	s.batchFails[batchID] = reason
	failed := 0
	for jobID := range s.members[batchID] {
		if _, done := s.finalized[jobID]; !done {
			s.finalized[jobID] = reason
			failed++
		}
	}
	return failed, nil
}

func (s *fakeBatchStore) FinalizeFromBatch(ctx context.Context, jobID int64, batchID string, outcome repo.BatchOutcome) (bool, error) {
	members, ok := s.members[batchID]
	if !ok {
		return false, domain.ErrAlreadyFinalized
	}
	recipeID, ok := members[jobID]
	if !ok {
		return false, domain.ErrAlreadyFinalized
	}
	if _, done := s.finalized[jobID]; done {
		return false, domain.ErrAlreadyFinalized
	}
	servings := s.servings[jobID]
	if servings == 0 {
		servings = 2
	}
	result, failReason := outcome(recipeID, servings)
	if failReason != "" {
		s.finalized[jobID] = failReason
		return false, nil
	}
	if len(result) == 0 {
		s.finalized[jobID] = "empty result"
		return false, nil
	}
	s.finalized[jobID] = "ok"
	return true, nil
}

type fakeBatchAPI struct {
	uploadedName  string
	uploadedJSONL []byte
	created       []string // completion windows
	batch         openai.Batch
	output        []byte
}

func (a *fakeBatchAPI) UploadBatchFile(ctx context.Context, filename string, jsonl []byte) (string, error) {
	a.uploadedName = filename
	a.uploadedJSONL = jsonl
	return "file-9", nil
}

func (a *fakeBatchAPI) CreateBatch(ctx context.Context, inputFileID, completionWindow string) (openai.Batch, error) {
	a.created = append(a.created, completionWindow)
	return openai.Batch{ID: "batch-9", Status: openai.BatchStatusValidating, InputFileID: inputFileID}, nil
}

func (a *fakeBatchAPI) RetrieveBatch(ctx context.Context, batchID string) (openai.Batch, error) {
	return a.batch, nil
}

func (a *fakeBatchAPI) FileContent(ctx context.Context, fileID string) ([]byte, error) {
	return a.output, nil
}

func TestBatchSubmit(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	store.queued = []repo.QueuedNutritionJob{
		{JobID: 1, RecipeID: 101, Servings: 2},
		{JobID: 2, RecipeID: 102, Servings: 6},
	}
	api := &fakeBatchAPI{}
	submitter := &BatchSubmitter{Store: store, API: api, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	summary, err := submitter.Submit(context.Background(), 10, "24h", false)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Candidates)
	require.Equal(t, 2, summary.Submitted)
	require.Equal(t, "batch-9", summary.BatchID)
	require.Regexp(t, `^nutrition_jobs-[0-9a-f-]{36}\.jsonl$`, api.uploadedName)
	require.Equal(t, []string{"24h"}, api.created)
	require.Equal(t, "batch-9", store.submitted[1])
	require.Equal(t, "batch-9", store.submitted[2])

	var customIDs []string
	scanner := bufio.NewScanner(bytes.NewReader(api.uploadedJSONL))
	for scanner.Scan() {
		var line struct {
			CustomID string          `json:"custom_id"`
			Method   string          `json:"method"`
			URL      string          `json:"url"`
			Body     json.RawMessage `json:"body"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		require.Equal(t, "POST", line.Method)
		require.Equal(t, "/v1/chat/completions", line.URL)
		require.NotEmpty(t, line.Body)
		customIDs = append(customIDs, line.CustomID)
	}
	require.Equal(t, []string{"nutrition_job:1", "nutrition_job:2"}, customIDs)
}

func TestBatchSubmitDryRun(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	store.queued = []repo.QueuedNutritionJob{{JobID: 1, RecipeID: 101, Servings: 2}}
	api := &fakeBatchAPI{}
	submitter := &BatchSubmitter{Store: store, API: api, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	summary, err := submitter.Submit(context.Background(), 10, "24h", true)
	require.NoError(t, err)
	require.True(t, summary.DryRun)
	require.Equal(t, 1, summary.Candidates)
	require.Zero(t, summary.Submitted)
	require.Empty(t, api.created, "dry run must not create a batch")
	require.Empty(t, store.submitted)
}

func TestBatchSubmitEmptyQueue(t *testing.T) {
	t.Parallel()
	submitter := &BatchSubmitter{Store: newFakeBatchStore(), API: &fakeBatchAPI{}, Model: "gpt-4o-mini", Logger: zerolog.Nop()}
	summary, err := submitter.Submit(context.Background(), 10, "24h", false)
	require.NoError(t, err)
	require.Zero(t, summary.Candidates)
}

func batchOutputLine(t *testing.T, jobID int64, content string) []byte {
	t.Helper()
	line := map[string]any{
		"custom_id": fmt.Sprintf("nutrition_job:%d", jobID),
		"response": map[string]any{
			"status_code": 200,
			"body": map[string]any{
				"choices": []map[string]any{{"message": map[string]any{"content": content}}},
			},
		},
	}
	encoded, err := json.Marshal(line)
	require.NoError(t, err)
	return encoded
}

func TestBatchPollCompletedMixedOutcomes(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	store.batchIDs = []string{"batch-9"}
	store.members["batch-9"] = map[int64]int64{1: 101, 2: 102, 3: 103, 4: 104}

	var output bytes.Buffer
	output.Write(batchOutputLine(t, 1, nutritionCompletion))
	output.WriteByte('\n')
	output.Write(batchOutputLine(t, 2, "ne JSON atsakymas"))
	output.WriteByte('\n')
	errorLine, err := json.Marshal(map[string]any{
		"custom_id": "nutrition_job:3",
		"error":     map[string]any{"message": "request timed out"},
	})
	require.NoError(t, err)
	output.Write(errorLine)
	output.WriteByte('\n')

	api := &fakeBatchAPI{
		batch:  openai.Batch{ID: "batch-9", Status: openai.BatchStatusCompleted, OutputFileID: "out-1"},
		output: output.Bytes(),
	}
	poller := &BatchPoller{Store: store, API: api, Logger: zerolog.Nop()}

	summary, err := poller.Poll(context.Background(), "", 20)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Batches)
	require.Equal(t, 1, summary.Succeeded)
	// job 2 (parse error), job 3 (line error), job 4 (missing from output).
	require.Equal(t, 3, summary.Failed)
	require.Equal(t, "ok", store.finalized[1])
	require.Contains(t, store.finalized[2], "parse_error")
	require.Contains(t, store.finalized[3], "request timed out")
	require.Equal(t, "missing_from_batch_output", store.finalized[4])
}

func TestBatchPollInProgress(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	api := &fakeBatchAPI{batch: openai.Batch{ID: "batch-9", Status: openai.BatchStatusInProgress}}
	poller := &BatchPoller{Store: store, API: api, Logger: zerolog.Nop()}

	summary, err := poller.Poll(context.Background(), "batch-9", 20)
	require.NoError(t, err)
	require.Equal(t, 1, summary.InProgress)
	require.Empty(t, store.batchFails)
}

func TestBatchPollTerminalFailure(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	store.members["batch-9"] = map[int64]int64{1: 101, 2: 102}
	api := &fakeBatchAPI{batch: openai.Batch{ID: "batch-9", Status: openai.BatchStatusExpired}}
	poller := &BatchPoller{Store: store, API: api, Logger: zerolog.Nop()}

	summary, err := poller.Poll(context.Background(), "batch-9", 20)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Failed)
	require.Equal(t, "batch_expired", store.batchFails["batch-9"])
}

func TestBatchPollReplayIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	store.batchIDs = []string{"batch-9"}
	store.members["batch-9"] = map[int64]int64{1: 101}

	var output bytes.Buffer
	output.Write(batchOutputLine(t, 1, nutritionCompletion))
	output.WriteByte('\n')
	api := &fakeBatchAPI{
		batch:  openai.Batch{ID: "batch-9", Status: openai.BatchStatusCompleted, OutputFileID: "out-1"},
		output: output.Bytes(),
	}
	poller := &BatchPoller{Store: store, API: api, Logger: zerolog.Nop()}

	first, err := poller.Poll(context.Background(), "batch-9", 20)
	require.NoError(t, err)
	require.Equal(t, 1, first.Succeeded)

	second, err := poller.Poll(context.Background(), "batch-9", 20)
	require.NoError(t, err)
	require.Zero(t, second.Succeeded)
	require.Equal(t, 1, second.Skipped, "replayed lines must be dropped")
	require.Equal(t, "ok", store.finalized[1], "first result must stand")
}

func TestBatchPollIgnoresForeignCustomIDs(t *testing.T) {
	t.Parallel()
	store := newFakeBatchStore()
	store.members["batch-9"] = map[int64]int64{1: 101}

	foreign, err := json.Marshal(map[string]any{"custom_id": "image_job:1"})
	require.NoError(t, err)
	var output bytes.Buffer
	output.Write(foreign)
	output.WriteByte('\n')
	output.Write(batchOutputLine(t, 1, nutritionCompletion))

	api := &fakeBatchAPI{
		batch:  openai.Batch{ID: "batch-9", Status: openai.BatchStatusCompleted, OutputFileID: "out-1"},
		output: output.Bytes(),
	}
	poller := &BatchPoller{Store: store, API: api, Logger: zerolog.Nop()}

	summary, err := poller.Poll(context.Background(), "batch-9", 20)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.Zero(t, summary.Failed)
}
