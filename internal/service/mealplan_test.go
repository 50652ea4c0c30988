package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/snapdish/snapdish-backend/internal/models"
	"github.com/snapdish/snapdish-backend/internal/testdb"
	"github.com/snapdish/snapdish-backend/internal/types"
)

type mealPlanFixture struct {
	db     *gorm.DB
	plans  *MealPlanService
	user   *models.User
	recipe *models.SavedRecipe
}

func newMealPlanFixture(t *testing.T) *mealPlanFixture {
	t.Helper()
	db := testdb.SetupSQLite(t)
	user, _ := testdb.CreateTestUser(t, db, types.TierPremium)
	saved, err := NewRecipeBookService(db).Save(context.Background(), user.ID, sampleRecipe("Planned Dish", "egg"))
	require.NoError(t, err)
	return &mealPlanFixture{
		db:     db,
		plans:  NewMealPlanService(db),
		user:   user,
		recipe: saved,
	}
}

func TestAddPlanEntry(t *testing.T) {
	f := newMealPlanFixture(t)
	day := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	entry, err := f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, day, models.MealSlotDinner, "double servings")
	require.NoError(t, err)

	assert.Equal(t, models.MealSlotDinner, entry.Slot)
	assert.Equal(t, "double servings", entry.Notes)
	assert.Zero(t, entry.PlannedFor.Hour(), "planned day is truncated to midnight")
	require.NotNil(t, entry.SavedRecipe)
	assert.Equal(t, "Planned Dish", entry.SavedRecipe.Title)
}

func TestAddRejectsUnknownSlot(t *testing.T) {
	f := newMealPlanFixture(t)

	_, err := f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, time.Now(), "brunch", "")

	var validationErr *types.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestAddRejectsForeignRecipe(t *testing.T) {
	f := newMealPlanFixture(t)
	intruder, _ := testdb.CreateTestUser(t, f.db, types.TierPremium)

	_, err := f.plans.Add(context.Background(), intruder.ID, f.recipe.ID, time.Now(), models.MealSlotLunch, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddRejectsMissingRecipe(t *testing.T) {
	f := newMealPlanFixture(t)

	_, err := f.plans.Add(context.Background(), f.user.ID, uuid.New(), time.Now(), models.MealSlotLunch, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWeekWindow(t *testing.T) {
	f := newMealPlanFixture(t)
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, monday, models.MealSlotBreakfast, "")
	require.NoError(t, err)
	_, err = f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, monday.AddDate(0, 0, 6), models.MealSlotDinner, "")
	require.NoError(t, err)
	// one day past the window
	_, err = f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, monday.AddDate(0, 0, 7), models.MealSlotLunch, "")
	require.NoError(t, err)
	// the day before
	_, err = f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, monday.AddDate(0, 0, -1), models.MealSlotLunch, "")
	require.NoError(t, err)

	entries, err := f.plans.Week(context.Background(), f.user.ID, monday)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.MealSlotBreakfast, entries[0].Slot)
	assert.Equal(t, models.MealSlotDinner, entries[1].Slot)
	require.NotNil(t, entries[0].SavedRecipe, "week entries carry the planned recipe")
}

func TestWeekScopedToOwner(t *testing.T) {
	f := newMealPlanFixture(t)
	other, _ := testdb.CreateTestUser(t, f.db, types.TierPremium)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, day, models.MealSlotLunch, "")
	require.NoError(t, err)

	entries, err := f.plans.Week(context.Background(), other.ID, day)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemovePlanEntry(t *testing.T) {
	f := newMealPlanFixture(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	entry, err := f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, day, models.MealSlotSnack, "")
	require.NoError(t, err)

	require.NoError(t, f.plans.Remove(context.Background(), f.user.ID, entry.ID))

	entries, err := f.plans.Week(context.Background(), f.user.ID, day)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveRefusesForeignEntry(t *testing.T) {
	f := newMealPlanFixture(t)
	intruder, _ := testdb.CreateTestUser(t, f.db, types.TierPremium)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	entry, err := f.plans.Add(context.Background(), f.user.ID, f.recipe.ID, day, models.MealSlotSnack, "")
	require.NoError(t, err)

	err = f.plans.Remove(context.Background(), intruder.ID, entry.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	entries, err := f.plans.Week(context.Background(), f.user.ID, day)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the entry must survive the foreign removal attempt")
}
