package domain

import "time"

// Difficulty enumerates recipe difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the supported difficulty keys.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Recipe is the owning domain entity for all AI job kinds. Only the columns
// the job pipeline reads or writes are modeled here; the catalog read paths
// live outside this service.
type Recipe struct {
	ID              int64
	Title           string
	Slug            string
	Description     string
	Note            string
	IsGenerated     bool
	PreparationTime int
	CookingTime     int
	Servings        int
	Difficulty      Difficulty

	ImagePath       string
	MetaTitle       string
	MetaDescription string

	Nutrition               []byte
	NutritionDirty          bool
	NutritionInputHash      string
	NutritionUpdatedAt      *time.Time
	NutritionLastEnqueuedAt *time.Time

	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeStep is a single ordered cooking step.
type RecipeStep struct {
	ID          int64
	RecipeID    int64
	Order       int
	Title       string
	Description string
	Duration    *int
}

// RecipeIngredient is one structured ingredient line. Amount is carried as the
// database's canonical numeric text so input hashes stay deterministic.
type RecipeIngredient struct {
	IngredientID int64
	GroupID      *int64
	UnitID       int64
	Amount       string
	Note         string

	IngredientName string
	UnitShortName  string
	GroupName      string
}

// RecipeTaxonomies carries the taxonomy names used by the SEO meta prompt and
// the search index document.
type RecipeTaxonomies struct {
	Cuisines       []string
	MealTypes      []string
	Categories     []string
	Tags           []string
	CookingMethods []string
}
