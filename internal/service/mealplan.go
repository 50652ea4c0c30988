package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snapdish/snapdish-backend/internal/models"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// MealPlanService schedules saved recipes onto a weekly plan
type MealPlanService struct {
	db *gorm.DB
}

// NewMealPlanService creates a new MealPlanService instance
func NewMealPlanService(db *gorm.DB) *MealPlanService {
	return &MealPlanService{db: db}
}

// Add plans a saved recipe for a meal slot on a day
func (s *MealPlanService) Add(ctx context.Context, userID uuid.UUID, savedRecipeID uuid.UUID, plannedFor time.Time, slot, notes string) (*models.MealPlanEntry, error) {
	switch slot {
	case models.MealSlotBreakfast, models.MealSlotLunch, models.MealSlotDinner, models.MealSlotSnack:
	default:
		return nil, types.NewValidationError("slot", "unknown meal slot: "+slot)
	}

	// the recipe must exist and belong to the user
	var saved models.SavedRecipe
	if err := s.db.WithContext(ctx).First(&saved, "id = ? AND user_id = ?", savedRecipeID, userID).Error; err != nil {
		return nil, err
	}

	entry := models.MealPlanEntry{
		UserID:        userID,
		SavedRecipeID: savedRecipeID,
		PlannedFor:    plannedFor.Truncate(24 * time.Hour),
		Slot:          slot,
		Notes:         notes,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	entry.SavedRecipe = &saved
	return &entry, nil
}

// Week returns all entries within the seven days starting at from,
// ordered by day then slot
func (s *MealPlanService) Week(ctx context.Context, userID uuid.UUID, from time.Time) ([]*models.MealPlanEntry, error) {
	start := from.Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 7)

	var entries []models.MealPlanEntry
	err := s.db.WithContext(ctx).
		Preload("SavedRecipe").
		Where("user_id = ? AND planned_for >= ? AND planned_for < ?", userID, start, end).
		Order("planned_for ASC, slot ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	result := make([]*models.MealPlanEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

// Remove deletes a plan entry owned by the user
func (s *MealPlanService) Remove(ctx context.Context, userID, entryID uuid.UUID) error {
	var entry models.MealPlanEntry
	if err := s.db.WithContext(ctx).First(&entry, "id = ? AND user_id = ?", entryID, userID).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&entry).Error
}
