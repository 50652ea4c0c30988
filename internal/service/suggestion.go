package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/snapdish/snapdish-backend/internal/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	// preloadDebounce delays next-page warming so rapid paging only
	// preloads once
	preloadDebounce = 500 * time.Millisecond
)

// SortBy values accepted in a suggestion request
const (
	SortByMatch       = "match"
	SortByCookingTime = "cooking_time"
	SortByDifficulty  = "difficulty"
)

// ImagePreloader warms recipe images ahead of the app requesting them.
// Implementations must swallow individual failures.
type ImagePreloader interface {
	PreloadImages(ctx context.Context, urls []string)
}

// SuggestionService resolves suggestion pages: cache-aside lookup by
// ingredient fingerprint, dietary filtering, sorting, slicing, and
// opportunistic warming of the next page and its images
type SuggestionService struct {
	llm       *LLMService
	preloader ImagePreloader

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewSuggestionService creates a new SuggestionService. preloader may be
// nil to disable image warming.
func NewSuggestionService(llm *LLMService, preloader ImagePreloader) *SuggestionService {
	return &SuggestionService{
		llm:       llm,
		preloader: preloader,
		timers:    make(map[string]*time.Timer),
	}
}

// GetPage returns one page of recipe suggestions for the ingredient set.
// On a full-result cache hit no remote call is made. When the returned
// page has a successor, a debounced background preload warms it.
func (s *SuggestionService) GetPage(ctx context.Context, req types.SuggestionRequest) (*types.SuggestionPage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, types.ErrDisposed
	}
	s.mu.Unlock()

	normalizeRequest(&req)
	page, err := s.resolvePage(ctx, req)
	if err != nil {
		return nil, err
	}

	if page.HasNext {
		next := req
		next.Page = req.Page + 1
		s.schedulePreload(next)
	}
	s.preloadPageImages(page.Recipes)

	return page, nil
}

// resolvePage builds a page without scheduling further preloads
func (s *SuggestionService) resolvePage(ctx context.Context, req types.SuggestionRequest) (*types.SuggestionPage, error) {
	start := time.Now()

	result, fromCache, err := s.llm.GenerateRecipes(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipes := applyFilters(result.Recipes, req.Filters)
	sortRecipes(recipes, req.SortBy)

	offset := (req.Page - 1) * req.PageSize
	if len(recipes) == 0 || offset >= len(recipes) {
		// primary result empty or exhausted: fall back to looser
		// alternatives, which never error
		alternatives := applyFilters(s.llm.GenerateAlternatives(ctx, req.Ingredients), req.Filters)
		sortRecipes(alternatives, req.SortBy)
		recipes = append(recipes, alternatives...)
	}

	total := len(recipes)
	totalPages := (total + req.PageSize - 1) / req.PageSize

	end := offset + req.PageSize
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	return &types.SuggestionPage{
		Recipes:      recipes[offset:end],
		PageNumber:   req.Page,
		PageSize:     req.PageSize,
		TotalRecipes: total,
		TotalPages:   totalPages,
		HasNext:      req.Page < totalPages,
		HasPrev:      req.Page > 1 && total > 0,
		FromCache:    fromCache,
		ElapsedMs:    time.Since(start).Milliseconds(),
	}, nil
}

// schedulePreload arms (or re-arms) the debounce timer for this
// ingredient/filter/sort series. A newer request replaces a pending
// timer; a preload already running is left alone.
func (s *SuggestionService) schedulePreload(req types.SuggestionRequest) {
	key := preloadKey(req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(preloadDebounce, func() {
		s.mu.Lock()
		delete(s.timers, key)
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		// detached from the request that scheduled it
		page, err := s.resolvePage(context.Background(), req)
		if err != nil {
			log.Printf("[SuggestionService] preload of page %d failed: %v", req.Page, err)
			return
		}
		s.preloadPageImages(page.Recipes)
	})
}

// preloadPageImages warms the images for the given recipes, best effort
func (s *SuggestionService) preloadPageImages(recipes []types.Recipe) {
	if s.preloader == nil {
		return
	}
	urls := make([]string, 0, len(recipes))
	for _, r := range recipes {
		if r.ImageURL != "" {
			urls = append(urls, r.ImageURL)
		}
	}
	if len(urls) == 0 {
		return
	}
	go s.preloader.PreloadImages(context.Background(), urls)
}

// Close cancels pending preload timers and rejects further requests.
// Preloads already in flight run to completion.
func (s *SuggestionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

func normalizeRequest(req *types.SuggestionRequest) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	if req.SortBy == "" {
		req.SortBy = SortByMatch
	}
}

func preloadKey(req types.SuggestionRequest) string {
	return IngredientKey(req.Ingredients) + "|" + req.SortBy + "|" + strings.Join(req.Filters, ",")
}

// keyword lists for the dietary predicates; matching is case-insensitive
// substring over the recipe's stated ingredients
var (
	meatKeywords   = []string{"chicken", "beef", "pork", "lamb", "bacon", "ham", "turkey", "fish", "salmon", "tuna", "shrimp", "sausage", "anchovy"}
	dairyKeywords  = []string{"milk", "cheese", "butter", "cream", "yogurt"}
	glutenKeywords = []string{"flour", "wheat", "bread", "pasta", "barley", "rye"}
)

// applyFilters keeps recipes passing every named predicate. Unknown
// filter names are ignored.
func applyFilters(recipes []types.Recipe, filters []string) []types.Recipe {
	if len(filters) == 0 {
		return append([]types.Recipe(nil), recipes...)
	}

	kept := make([]types.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		if passesFilters(recipe, filters) {
			kept = append(kept, recipe)
		}
	}
	return kept
}

func passesFilters(recipe types.Recipe, filters []string) bool {
	for _, name := range filters {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "vegetarian":
			if containsAnyKeyword(recipe.Ingredients, meatKeywords) {
				return false
			}
		case "vegan":
			if containsAnyKeyword(recipe.Ingredients, meatKeywords) ||
				containsAnyKeyword(recipe.Ingredients, dairyKeywords) ||
				containsAnyKeyword(recipe.Ingredients, []string{"egg", "honey"}) {
				return false
			}
		case "gluten-free":
			if hasIntolerance(recipe, "gluten") || containsAnyKeyword(recipe.Ingredients, glutenKeywords) {
				return false
			}
		case "dairy-free":
			if hasIntolerance(recipe, "lactose") || hasIntolerance(recipe, "dairy") ||
				containsAnyKeyword(recipe.Ingredients, dairyKeywords) {
				return false
			}
		}
	}
	return true
}

func containsAnyKeyword(ingredients, keywords []string) bool {
	for _, ing := range ingredients {
		lower := strings.ToLower(ing)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func hasIntolerance(recipe types.Recipe, name string) bool {
	for _, intolerance := range recipe.Intolerances {
		if strings.EqualFold(strings.TrimSpace(intolerance), name) {
			return true
		}
	}
	return false
}

func sortRecipes(recipes []types.Recipe, sortBy string) {
	switch sortBy {
	case SortByCookingTime:
		sort.SliceStable(recipes, func(i, j int) bool {
			return recipes[i].CookingTimeMinutes < recipes[j].CookingTimeMinutes
		})
	case SortByDifficulty:
		sort.SliceStable(recipes, func(i, j int) bool {
			return types.DifficultyRank(recipes[i].Difficulty) < types.DifficultyRank(recipes[j].Difficulty)
		})
	default:
		sort.SliceStable(recipes, func(i, j int) bool {
			return recipes[i].MatchPercentage > recipes[j].MatchPercentage
		})
	}
}
