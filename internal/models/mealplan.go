package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Slots a recipe can be planned into
const (
	MealSlotBreakfast = "breakfast"
	MealSlotLunch     = "lunch"
	MealSlotDinner    = "dinner"
	MealSlotSnack     = "snack"
)

// MealPlanEntry schedules a saved recipe for a meal on a given day
type MealPlanEntry struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	UserID        uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	SavedRecipeID uuid.UUID      `gorm:"type:uuid;not null" json:"saved_recipe_id"`
	SavedRecipe   *SavedRecipe   `gorm:"foreignKey:SavedRecipeID" json:"saved_recipe,omitempty"`
	PlannedFor    time.Time      `gorm:"not null;index" json:"planned_for"`
	Slot          string         `gorm:"size:20;not null" json:"slot"`
	Notes         string         `gorm:"type:text" json:"notes"`
}

func (e *MealPlanEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
