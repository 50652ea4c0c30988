package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snapdish/snapdish-backend/internal/models"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// RecipeBookService persists suggestions the user chose to keep
type RecipeBookService struct {
	db *gorm.DB
}

// NewRecipeBookService creates a new RecipeBookService instance
func NewRecipeBookService(db *gorm.DB) *RecipeBookService {
	return &RecipeBookService{db: db}
}

// Save stores a suggested recipe in the user's book
func (s *RecipeBookService) Save(ctx context.Context, userID uuid.UUID, recipe types.Recipe) (*models.SavedRecipe, error) {
	if strings.TrimSpace(recipe.Title) == "" {
		return nil, types.NewValidationError("title", "recipe title is required")
	}

	saved := models.SavedRecipe{
		UserID:             userID,
		Title:              recipe.Title,
		Ingredients:        models.JSONBStringArray(recipe.Ingredients),
		Instructions:       models.JSONBStringArray(recipe.Instructions),
		CookingTimeMinutes: recipe.CookingTimeMinutes,
		Servings:           recipe.Servings,
		Difficulty:         recipe.Difficulty,
		Calories:           recipe.Nutrition.Calories,
		Protein:            recipe.Nutrition.Protein,
		Carbs:              recipe.Nutrition.Carbs,
		Fat:                recipe.Nutrition.Fat,
		Allergens:          models.JSONBStringArray(recipe.Allergens),
		ImageURL:           recipe.ImageURL,
		Embedding:          GenerateEmbedding(recipe.Title + " " + strings.Join(recipe.Ingredients, " ")),
	}
	if err := s.db.WithContext(ctx).Create(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// Get retrieves one saved recipe owned by the user
func (s *RecipeBookService) Get(ctx context.Context, userID, id uuid.UUID) (*models.SavedRecipe, error) {
	var saved models.SavedRecipe
	if err := s.db.WithContext(ctx).First(&saved, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// List returns all of the user's saved recipes, newest first
func (s *RecipeBookService) List(ctx context.Context, userID uuid.UUID) ([]*models.SavedRecipe, error) {
	var saved []models.SavedRecipe
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&saved).Error; err != nil {
		return nil, err
	}
	result := make([]*models.SavedRecipe, len(saved))
	for i := range saved {
		result[i] = &saved[i]
	}
	return result, nil
}

// Delete removes a saved recipe owned by the user
func (s *RecipeBookService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var saved models.SavedRecipe
	if err := s.db.WithContext(ctx).First(&saved, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&saved).Error
}

// Search combines keyword and embedding similarity search over the
// user's book. On non-Postgres databases it falls back to keyword only.
func (s *RecipeBookService) Search(ctx context.Context, userID uuid.UUID, query string) ([]*models.SavedRecipe, error) {
	var saved []models.SavedRecipe

	dbQuery := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		if s.db.Dialector.Name() == "postgres" {
			vec := GenerateEmbedding(query)
			subQuery := s.db.Model(&models.SavedRecipe{}).
				Select("id, embedding <-> ? as similarity", vec).
				Where("user_id = ?", userID).
				Where("LOWER(title) LIKE ? OR LOWER(ingredients::text) LIKE ?", like, like)
			dbQuery = dbQuery.Joins("JOIN (?) as search ON saved_recipes.id = search.id", subQuery).
				Order("search.similarity ASC")
		} else {
			dbQuery = dbQuery.Where("LOWER(title) LIKE ? OR LOWER(ingredients) LIKE ?", like, like)
		}
	}

	if err := dbQuery.Find(&saved).Error; err != nil {
		return nil, err
	}

	result := make([]*models.SavedRecipe, len(saved))
	for i := range saved {
		result[i] = &saved[i]
	}
	return result, nil
}
