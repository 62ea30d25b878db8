package jobs

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
)

type metaUpdate struct {
	title          string
	setTitle       bool
	description    string
	setDescription bool
}

type fakeMetaStore struct {
	candidates []domain.Recipe
	updates    map[int64]metaUpdate
}

func (s *fakeMetaStore) ListMetaCandidates(ctx context.Context, limit int, includeDrafts bool) ([]domain.Recipe, error) {
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

func (s *fakeMetaStore) Taxonomies(ctx context.Context, recipeID int64) (domain.RecipeTaxonomies, error) {
	return domain.RecipeTaxonomies{Cuisines: []string{"Lietuviška"}}, nil
}

func (s *fakeMetaStore) IngredientRowsForPrompt(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error) {
	return []domain.RecipeIngredient{{IngredientID: 1, UnitID: 1, Amount: "1", UnitShortName: "kg", IngredientName: "bulvės"}}, nil
}

func (s *fakeMetaStore) UpdateMeta(ctx context.Context, recipeID int64, metaTitle string, setTitle bool, metaDescription string, setDescription bool) error {
	if s.updates == nil {
		s.updates = map[int64]metaUpdate{}
	}
	s.updates[recipeID] = metaUpdate{title: metaTitle, setTitle: setTitle, description: metaDescription, setDescription: setDescription}
	return nil
}

func (s *fakeMetaStore) SearchDocument(ctx context.Context, recipeID int64) (*repo.RecipeSearchDoc, error) {
	return &repo.RecipeSearchDoc{RecipeID: recipeID}, nil
}

const metaCompletion = `{"meta_title": "Cepelinai namuose", "meta_description": "Tradicinis receptas žingsnis po žingsnio."}`

func TestMetaFillOnlyMissingFields(t *testing.T) {
	t.Parallel()
	store := &fakeMetaStore{candidates: []domain.Recipe{
		{ID: 1, Title: "Cepelinai", Servings: 4, Difficulty: domain.DifficultyMedium},
		{ID: 2, Title: "Kugelis", MetaTitle: "Rankinis pavadinimas", Servings: 6, Difficulty: domain.DifficultyEasy},
	}}
	chat := &fakeChat{content: metaCompletion}
	filler := &MetaFiller{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	summary, err := filler.Fill(context.Background(), 10, false, false)
	require.NoError(t, err)
	require.Equal(t, MetaSummary{Candidates: 2, Updated: 2}, summary)

	first := store.updates[1]
	require.True(t, first.setTitle)
	require.True(t, first.setDescription)
	require.Equal(t, "Cepelinai namuose", first.title)

	second := store.updates[2]
	require.False(t, second.setTitle, "hand-written meta title must be kept")
	require.True(t, second.setDescription)
}

func TestMetaFillDryRun(t *testing.T) {
	t.Parallel()
	store := &fakeMetaStore{candidates: []domain.Recipe{{ID: 1, Title: "Cepelinai"}}}
	chat := &fakeChat{content: metaCompletion}
	filler := &MetaFiller{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	summary, err := filler.Fill(context.Background(), 10, false, true)
	require.NoError(t, err)
	require.True(t, summary.DryRun)
	require.Empty(t, chat.requests, "dry run must not call the provider")
	require.Empty(t, store.updates)
}

func TestMetaFillContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	store := &fakeMetaStore{candidates: []domain.Recipe{
		{ID: 1, Title: "Cepelinai"},
		{ID: 2, Title: "Kugelis"},
	}}
	chat := &fakeChat{content: "blogas atsakymas"}
	filler := &MetaFiller{Store: store, Chat: chat, Model: "gpt-4o-mini", Logger: zerolog.Nop()}

	summary, err := filler.Fill(context.Background(), 10, false, false)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Failed)
	require.Zero(t, summary.Updated)
	require.Len(t, chat.requests, 2, "one failed recipe must not stop the run")
}
