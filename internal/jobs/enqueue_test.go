package jobs

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/nutrition"
)

type fakeNutritionEnqueueStore struct {
	candidates []repo.NutritionCandidate
	rows       map[int64][]domain.RecipeIngredient
	created    map[int64]string // recipeID -> inputHash
}

func (s *fakeNutritionEnqueueStore) ListCandidates(ctx context.Context, limit int, includeDrafts, force bool) ([]repo.NutritionCandidate, error) {
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

func (s *fakeNutritionEnqueueStore) IngredientRowsForHash(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error) {
	return s.rows[recipeID], nil
}

func (s *fakeNutritionEnqueueStore) CreateJob(ctx context.Context, recipeID int64, inputHash string) (int64, error) {
	if s.created == nil {
		s.created = map[int64]string{}
	}
	s.created[recipeID] = inputHash
	return recipeID * 10, nil
}

func TestNutritionEnqueue(t *testing.T) {
	t.Parallel()
	rows := []domain.RecipeIngredient{{IngredientID: 1, UnitID: 1, Amount: "500"}}
	store := &fakeNutritionEnqueueStore{
		candidates: []repo.NutritionCandidate{
			{RecipeID: 1, Servings: 4},
			{RecipeID: 2, Servings: 2}, // no ingredients, skipped
		},
		rows: map[int64][]domain.RecipeIngredient{1: rows},
	}
	enqueuer := &NutritionEnqueuer{Store: store, Logger: zerolog.Nop()}

	summary, err := enqueuer.Enqueue(context.Background(), 10, false, false, false)
	require.NoError(t, err)
	require.Equal(t, EnqueueSummary{Candidates: 2, Created: 1, Skipped: 1}, summary)
	require.Equal(t, nutrition.ComputeInputHash(4, rows), store.created[1],
		"job must capture the enqueue-time input hash")
	require.NotContains(t, store.created, int64(2))
}

func TestNutritionEnqueueDryRun(t *testing.T) {
	t.Parallel()
	store := &fakeNutritionEnqueueStore{
		candidates: []repo.NutritionCandidate{{RecipeID: 1, Servings: 4}},
		rows:       map[int64][]domain.RecipeIngredient{1: {{IngredientID: 1, UnitID: 1, Amount: "1"}}},
	}
	enqueuer := &NutritionEnqueuer{Store: store, Logger: zerolog.Nop()}

	summary, err := enqueuer.Enqueue(context.Background(), 10, false, false, true)
	require.NoError(t, err)
	require.True(t, summary.DryRun)
	require.Equal(t, 1, summary.Created)
	require.Empty(t, store.created, "dry run must not create jobs")
}

type fakeImageEnqueueStore struct {
	candidates []repo.ImageCandidate
	names      map[int64][]string
	prompts    map[int64]string
}

func (s *fakeImageEnqueueStore) ListCandidates(ctx context.Context, limit int, includeNonGenerated bool) ([]repo.ImageCandidate, error) {
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

func (s *fakeImageEnqueueStore) IngredientNamesForRecipe(ctx context.Context, recipeID int64) ([]string, error) {
	return s.names[recipeID], nil
}

func (s *fakeImageEnqueueStore) CreateJob(ctx context.Context, recipeID int64, prompt string) (int64, error) {
	if s.prompts == nil {
		s.prompts = map[int64]string{}
	}
	s.prompts[recipeID] = prompt
	return recipeID * 10, nil
}

func TestImageEnqueue(t *testing.T) {
	t.Parallel()
	store := &fakeImageEnqueueStore{
		candidates: []repo.ImageCandidate{{RecipeID: 1, Title: "Cepelinai"}},
		names:      map[int64][]string{1: {"bulvės", "kiauliena"}},
	}
	enqueuer := &ImageEnqueuer{Store: store, Logger: zerolog.Nop()}

	summary, err := enqueuer.Enqueue(context.Background(), 10, false, false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Created)
	require.Contains(t, store.prompts[1], "Cepelinai")
	require.Contains(t, store.prompts[1], "bulvės, kiauliena")
}
