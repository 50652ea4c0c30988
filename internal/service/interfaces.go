package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/snapdish/snapdish-backend/internal/imaging"
	"github.com/snapdish/snapdish-backend/internal/models"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// IVisionService defines the interface for photo analysis
type IVisionService interface {
	Analyze(ctx context.Context, img *imaging.ProcessedImage) (*types.VisionResult, bool, error)
}

// ILLMService defines the interface for recipe generation
type ILLMService interface {
	GenerateRecipes(ctx context.Context, ingredients []string) (*types.RecipeGenerationResult, bool, error)
	GenerateAlternatives(ctx context.Context, ingredients []string) []types.Recipe
}

// ISuggestionService defines the interface for paginated suggestions
type ISuggestionService interface {
	GetPage(ctx context.Context, req types.SuggestionRequest) (*types.SuggestionPage, error)
	Close()
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(name, email, password string) (string, error)
	Login(email, password string) (string, error)
	SetSubscriptionTier(userID uuid.UUID, tier string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IRecipeBookService defines the interface for saved recipe operations
type IRecipeBookService interface {
	Save(ctx context.Context, userID uuid.UUID, recipe types.Recipe) (*models.SavedRecipe, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.SavedRecipe, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.SavedRecipe, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*models.SavedRecipe, error)
}

// IMealPlanService defines the interface for meal planning
type IMealPlanService interface {
	Add(ctx context.Context, userID uuid.UUID, savedRecipeID uuid.UUID, plannedFor time.Time, slot, notes string) (*models.MealPlanEntry, error)
	Week(ctx context.Context, userID uuid.UUID, from time.Time) ([]*models.MealPlanEntry, error)
	Remove(ctx context.Context, userID, entryID uuid.UUID) error
}

// IPhotoService defines the interface for dish photo storage
type IPhotoService interface {
	UploadDishPhoto(ctx context.Context, userID string, img *imaging.ProcessedImage) (string, error)
	PhotoURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error)
	PreloadImages(ctx context.Context, urls []string)
}
