package types

// Difficulty levels accepted from the AI service. Anything else is ranked
// as medium when sorting.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Nutrition is the per-serving macro breakdown reported for a recipe
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Recipe is a generated recipe suggestion. MatchPercentage,
// UsedIngredients and MissingIngredients are always recomputed locally
// against the caller's ingredient set; the values the AI service reports
// for them are discarded.
type Recipe struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Ingredients        []string  `json:"ingredients"`
	Instructions       []string  `json:"instructions"`
	CookingTimeMinutes int       `json:"cooking_time_minutes"`
	Servings           int       `json:"servings"`
	MatchPercentage    float64   `json:"match_percentage"`
	Nutrition          Nutrition `json:"nutrition"`
	Allergens          []string  `json:"allergens,omitempty"`
	Intolerances       []string  `json:"intolerances,omitempty"`
	UsedIngredients    []string  `json:"used_ingredients"`
	MissingIngredients []string  `json:"missing_ingredients"`
	Difficulty         string    `json:"difficulty"`
	ImageURL           string    `json:"image_url,omitempty"`
}

// DifficultyRank maps a difficulty label to its sort order
// (easy < medium < hard). Unknown labels rank as medium.
func DifficultyRank(difficulty string) int {
	switch difficulty {
	case DifficultyEasy:
		return 0
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

// RecipeGenerationResult is the cached outcome of one generation request,
// keyed by the normalized ingredient fingerprint
type RecipeGenerationResult struct {
	Recipes                []Recipe `json:"recipes"`
	TotalFound             int      `json:"total_found"`
	AlternativeSuggestions []string `json:"alternative_suggestions,omitempty"`
	Success                bool     `json:"success"`
	Error                  string   `json:"error,omitempty"`
}

// SuggestionRequest is one page request from the app
type SuggestionRequest struct {
	Ingredients []string `json:"ingredients"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	SortBy      string   `json:"sort_by"`
	Filters     []string `json:"filters"`
}

// SuggestionPage is a derived slice of a full generation result. It is
// computed per request and never persisted.
type SuggestionPage struct {
	Recipes      []Recipe `json:"recipes"`
	PageNumber   int      `json:"page_number"`
	PageSize     int      `json:"page_size"`
	TotalRecipes int      `json:"total_recipes"`
	TotalPages   int      `json:"total_pages"`
	HasNext      bool     `json:"has_next"`
	HasPrev      bool     `json:"has_prev"`
	FromCache    bool     `json:"from_cache"`
	ElapsedMs    int64    `json:"elapsed_ms"`
}
