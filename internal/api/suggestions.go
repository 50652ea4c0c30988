package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapdish/snapdish-backend/internal/service"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// SuggestionRequestBody mirrors types.SuggestionRequest for binding
type SuggestionRequestBody struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	SortBy      string   `json:"sort_by"`
	Filters     []string `json:"filters"`
}

type SuggestionHandler struct {
	suggestions service.ISuggestionService
}

func NewSuggestionHandler(suggestions service.ISuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

func (h *SuggestionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/suggestions", h.GetSuggestions)
}

// GetSuggestions returns one page of recipe suggestions for the posted
// ingredient list
func (h *SuggestionHandler) GetSuggestions(c *gin.Context) {
	var body SuggestionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	page, err := h.suggestions.GetPage(c.Request.Context(), types.SuggestionRequest{
		Ingredients: body.Ingredients,
		Page:        body.Page,
		PageSize:    body.PageSize,
		SortBy:      body.SortBy,
		Filters:     body.Filters,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}
