package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/snapdish/snapdish-backend/internal/cache"
	"github.com/snapdish/snapdish-backend/internal/types"
)

const recipeSystemPrompt = `You are a professional chef. Given a list of available ingredients,
suggest recipes that use as many of them as possible. Respond only with
JSON in this exact structure:
{
    "recipes": [
        {
            "title": "Recipe name",
            "ingredients": ["2 cups flour", "3 eggs"],
            "instructions": ["Step 1: ...", "Step 2: ..."],
            "cooking_time_minutes": 30,
            "servings": 4,
            "nutrition": {"calories": 350, "protein": 15, "carbs": 45, "fat": 12},
            "allergens": ["egg"],
            "intolerances": ["gluten"],
            "difficulty": "easy"
        }
    ],
    "total_found": 1,
    "alternative_suggestions": ["add olive oil for more options"]
}
Difficulty must be one of: easy, medium, hard. Nutrition values must be
numbers. Suggest 8 to 12 recipes when the ingredients allow it.`

const (
	primaryTemperature = 0.7
	// alternatives relax matching by sampling more freely
	alternativeTemperature = 0.95
)

// LLMService generates recipe suggestions for an ingredient set through
// the AI endpoint, caching full generation results under the normalized
// ingredient fingerprint
type LLMService struct {
	ai    *AIClient
	cache *cache.ResultCache
}

// NewLLMService creates a new LLMService instance
func NewLLMService(ai *AIClient, resultCache *cache.ResultCache) *LLMService {
	return &LLMService{ai: ai, cache: resultCache}
}

// NormalizeIngredients trims, lower-cases, de-duplicates and sorts the
// list so equivalent sets compare equal regardless of order or casing
func NormalizeIngredients(ingredients []string) []string {
	seen := make(map[string]bool, len(ingredients))
	normalized := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		name := strings.ToLower(strings.TrimSpace(ing))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	sort.Strings(normalized)
	return normalized
}

// IngredientKey derives the cache key for an ingredient set:
// ["Egg","Rice"] and ["rice","egg"] hash identically
func IngredientKey(ingredients []string) string {
	joined := strings.Join(NormalizeIngredients(ingredients), ",")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// GenerateRecipes returns recipe suggestions for the given ingredients.
// Within the TTL window, repeated calls for an equivalent ingredient set
// hit the cache, and concurrent first calls share one remote request.
// The bool reports whether the result came from cache.
func (s *LLMService) GenerateRecipes(ctx context.Context, ingredients []string) (*types.RecipeGenerationResult, bool, error) {
	normalized := NormalizeIngredients(ingredients)
	if len(normalized) == 0 {
		return nil, false, types.NewValidationError("ingredients", "ingredient list is empty")
	}

	key := IngredientKey(normalized)
	raw, fromCache, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		result, remoteErr := s.generateRemote(ctx, normalized, primaryTemperature)
		if remoteErr != nil {
			return nil, remoteErr
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, false, err
	}

	var result types.RecipeGenerationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, &types.CacheError{Op: "decode", Err: err}
	}
	return &result, fromCache, nil
}

// GenerateAlternatives fetches looser suggestions at a higher sampling
// temperature. It is called only when the primary result is empty or
// exhausted, and any failure degrades to an empty list.
func (s *LLMService) GenerateAlternatives(ctx context.Context, ingredients []string) []types.Recipe {
	normalized := NormalizeIngredients(ingredients)
	if len(normalized) == 0 {
		return nil
	}

	key := IngredientKey(normalized) + ":alt"
	raw, _, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		result, remoteErr := s.generateRemote(ctx, normalized, alternativeTemperature)
		if remoteErr != nil {
			return nil, remoteErr
		}
		return json.Marshal(result)
	})
	if err != nil {
		log.Printf("[LLMService] alternative generation failed: %v", err)
		return nil
	}

	var result types.RecipeGenerationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Printf("[LLMService] alternative decode failed: %v", err)
		return nil
	}
	return result.Recipes
}

func (s *LLMService) generateRemote(ctx context.Context, normalized []string, temperature float64) (*types.RecipeGenerationResult, error) {
	messages := []Message{
		{Role: "system", Content: recipeSystemPrompt},
		{Role: "user", Content: "Available ingredients: " + strings.Join(normalized, ", ")},
	}

	content, err := s.ai.Chat(ctx, messages, 4000, temperature)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Recipes                []types.Recipe `json:"recipes"`
		TotalFound             *int           `json:"total_found"`
		AlternativeSuggestions []string       `json:"alternative_suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &types.ProcessingError{
			Kind:    types.ProcessingServiceFailure,
			Message: "failed to parse recipe response",
			Err:     err,
		}
	}
	if payload.Recipes == nil {
		return nil, &types.ProcessingError{
			Kind:    types.ProcessingServiceFailure,
			Message: "recipe response missing recipes field",
		}
	}

	recipes := payload.Recipes
	for i := range recipes {
		if recipes[i].ID == "" {
			recipes[i].ID = uuid.New().String()
		}
		recipes[i].Difficulty = strings.ToLower(strings.TrimSpace(recipes[i].Difficulty))
		used, missing, pct := MatchIngredients(recipes[i].Ingredients, normalized)
		recipes[i].UsedIngredients = used
		recipes[i].MissingIngredients = missing
		recipes[i].MatchPercentage = pct
	}

	// default ordering before any user-chosen sort
	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].MatchPercentage > recipes[j].MatchPercentage
	})

	totalFound := len(recipes)
	if payload.TotalFound != nil {
		totalFound = *payload.TotalFound
	}

	log.Printf("[LLMService] generated %d recipes for %d ingredients", len(recipes), len(normalized))

	return &types.RecipeGenerationResult{
		Recipes:                recipes,
		TotalFound:             totalFound,
		AlternativeSuggestions: payload.AlternativeSuggestions,
		Success:                true,
	}, nil
}

// MatchIngredients recomputes which of the recipe's stated ingredients
// the caller already has, by case-insensitive substring matching in
// either direction. The percentage is usedCount/totalRecipeIngredients
// (0 when the recipe lists none). The AI's own match estimate is never
// trusted. The heuristic is deterministic and order-independent; it can
// be replaced wholesale as long as that holds.
func MatchIngredients(recipeIngredients, available []string) (used, missing []string, pct float64) {
	if len(recipeIngredients) == 0 {
		return nil, nil, 0
	}

	availableLower := make([]string, len(available))
	for i, a := range available {
		availableLower[i] = strings.ToLower(strings.TrimSpace(a))
	}

	for _, ing := range recipeIngredients {
		ingLower := strings.ToLower(strings.TrimSpace(ing))
		matched := false
		for _, a := range availableLower {
			if a == "" {
				continue
			}
			if strings.Contains(ingLower, a) || strings.Contains(a, ingLower) {
				matched = true
				break
			}
		}
		if matched {
			used = append(used, ing)
		} else {
			missing = append(missing, ing)
		}
	}

	pct = float64(len(used)) / float64(len(recipeIngredients)) * 100
	return used, missing, pct
}
