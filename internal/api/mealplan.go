package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snapdish/snapdish-backend/internal/service"
)

type MealPlanRequest struct {
	SavedRecipeID string `json:"saved_recipe_id" binding:"required"`
	PlannedFor    string `json:"planned_for" binding:"required"` // YYYY-MM-DD
	Slot          string `json:"slot" binding:"required"`
	Notes         string `json:"notes"`
}

type MealPlanHandler struct {
	plan service.IMealPlanService
}

func NewMealPlanHandler(plan service.IMealPlanService) *MealPlanHandler {
	return &MealPlanHandler{plan: plan}
}

func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plan := router.Group("/meal-plan")
	{
		plan.POST("", h.AddEntry)
		plan.GET("", h.GetWeek)
		plan.DELETE("/:id", h.RemoveEntry)
	}
}

func (h *MealPlanHandler) AddEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	recipeID, err := uuid.Parse(req.SavedRecipeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid saved recipe id"})
		return
	}

	plannedFor, err := time.Parse("2006-01-02", req.PlannedFor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "planned_for must be YYYY-MM-DD"})
		return
	}

	entry, err := h.plan.Add(c.Request.Context(), userID, recipeID, plannedFor, req.Slot, req.Notes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "saved recipe not found"})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *MealPlanHandler) GetWeek(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	from := time.Now()
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}

	entries, err := h.plan.Week(c.Request.Context(), userID, from)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *MealPlanHandler) RemoveEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.plan.Remove(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
