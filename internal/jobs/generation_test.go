package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
)

const generationCompletion = `{
	"title": "Šaltibarščiai",
	"description": "Gaivi sriuba.",
	"ingredients": ["1 l kefyro", "3 burokėliai"],
	"steps": [{"order": 1, "description": "Sumaišykite."}],
	"preparation_time": 15,
	"cooking_time": 0,
	"servings": 4,
	"difficulty": "easy"
}`

type fakeGenerationStore struct {
	claims []*repo.GenerationClaim
	names  map[int64]string

	drafts      map[int64]repo.RecipeDraft
	usages      map[int64]*domain.TokenUsage
	failed      map[int64]string
	finalizeErr error
}

func newFakeGenerationStore(claims ...*repo.GenerationClaim) *fakeGenerationStore {
	return &fakeGenerationStore{
		claims: claims,
		names:  map[int64]string{},
		drafts: map[int64]repo.RecipeDraft{},
		usages: map[int64]*domain.TokenUsage{},
		failed: map[int64]string{},
	}
}

func (s *fakeGenerationStore) ClaimNext(ctx context.Context) (*repo.GenerationClaim, error) {
	if len(s.claims) == 0 {
		return nil, domain.ErrNoJobAvailable
	}
	claim := s.claims[0]
	s.claims = s.claims[1:]
	return claim, nil
}

func (s *fakeGenerationStore) IngredientNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := map[int64]string{}
	for _, id := range ids {
		if name, ok := s.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (s *fakeGenerationStore) FinalizeSuccess(ctx context.Context, jobID int64, draft repo.RecipeDraft, usage *domain.TokenUsage) (int64, error) {
	if s.finalizeErr != nil {
		return 0, s.finalizeErr
	}
	s.drafts[jobID] = draft
	s.usages[jobID] = usage
	return 1000 + jobID, nil
}

func (s *fakeGenerationStore) FinalizeFailure(ctx context.Context, jobID int64, reason string) error {
	if s.finalizeErr != nil {
		return s.finalizeErr
	}
	s.failed[jobID] = reason
	return nil
}

func generationClaim(t *testing.T, jobID int64) *repo.GenerationClaim {
	t.Helper()
	inputs, err := json.Marshal(map[string]any{
		"dish_type":           "sriuba",
		"have_ingredient_ids": []int64{1, 2},
		"prep_speed":          "fast",
		"exclude":             []string{"riešutai"},
	})
	require.NoError(t, err)
	return &repo.GenerationClaim{JobID: jobID, UserID: "user-1", Inputs: inputs}
}

func TestGenerationProcessOneSuccess(t *testing.T) {
	t.Parallel()
	store := newFakeGenerationStore(generationClaim(t, 1))
	store.names[1] = "kefyras"
	store.names[2] = "burokėliai"
	usage := &domain.TokenUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300}
	chat := &fakeChat{content: generationCompletion, usage: usage}
	processor := &GenerationProcessor{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	outcome, err := processor.ProcessOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome)

	draft := store.drafts[1]
	require.Equal(t, "Šaltibarščiai", draft.Title)
	require.Equal(t, "saltibarsciai-1", draft.Slug, "slug must carry the job id suffix")
	require.Contains(t, draft.Description, "## Ingredientai")
	require.Len(t, draft.Steps, 1)
	require.Equal(t, domain.DifficultyEasy, draft.Difficulty)
	require.Equal(t, usage, store.usages[1])

	require.Len(t, chat.requests, 1)
	require.Contains(t, chat.requests[0].User, "kefyras")
	require.Contains(t, chat.requests[0].User, "riešutai")
}

func TestGenerationProcessOneParseFailure(t *testing.T) {
	t.Parallel()
	store := newFakeGenerationStore(generationClaim(t, 2))
	chat := &fakeChat{content: "čia ne receptas"}
	processor := &GenerationProcessor{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	outcome, err := processor.ProcessOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome)
	require.Contains(t, store.failed[2], "parse_error")
	require.Empty(t, store.drafts, "failed jobs must not create recipes")
}

func TestGenerationProcessOneInvalidInputs(t *testing.T) {
	t.Parallel()
	store := newFakeGenerationStore(&repo.GenerationClaim{JobID: 3, UserID: "user-1", Inputs: []byte("not json")})
	chat := &fakeChat{content: generationCompletion}
	processor := &GenerationProcessor{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	outcome, err := processor.ProcessOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome)
	require.Contains(t, store.failed[3], "invalid_inputs")
	require.Empty(t, chat.requests, "undecodable inputs must not reach the provider")
}

func TestGenerationProcessOneAlreadyFinalized(t *testing.T) {
	t.Parallel()
	store := newFakeGenerationStore(generationClaim(t, 4))
	store.finalizeErr = domain.ErrAlreadyFinalized
	chat := &fakeChat{content: generationCompletion}
	processor := &GenerationProcessor{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	outcome, err := processor.ProcessOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome)
}

func TestGenerationProcessOneEmptyQueue(t *testing.T) {
	t.Parallel()
	processor := &GenerationProcessor{Store: newFakeGenerationStore(), Chat: &fakeChat{}, Model: "gpt-4o-mini", Logger: zerolog.Nop()}
	_, err := processor.ProcessOne(context.Background())
	require.ErrorIs(t, err, domain.ErrNoJobAvailable)
}
