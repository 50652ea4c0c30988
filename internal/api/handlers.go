package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/snapdish/snapdish-backend/internal/imaging"
	"github.com/snapdish/snapdish-backend/internal/middleware"
	"github.com/snapdish/snapdish-backend/internal/service"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "SnapDish API is running",
		"version": "v1.0.0",
	})
}

// Services bundles everything the route table depends on
type Services struct {
	Processor   *imaging.Processor
	Vision      service.IVisionService
	Suggestions service.ISuggestionService
	Auth        *service.AuthService
	RecipeBook  service.IRecipeBookService
	MealPlan    service.IMealPlanService
	Photos      service.IPhotoService
	Redis       *redis.Client
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svcs Services) {
	// Health check endpoint (no auth required)
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	var analysisLimiter *middleware.RateLimiter
	if svcs.Redis != nil {
		analysisLimiter = middleware.NewAnalysisRateLimiter(svcs.Redis)
	}

	authHandler := NewAuthHandler(svcs.Auth)
	analyzeHandler := NewAnalyzeHandler(svcs.Processor, svcs.Vision, svcs.Photos)
	suggestionHandler := NewSuggestionHandler(svcs.Suggestions)
	recipeBookHandler := NewRecipeBookHandler(svcs.RecipeBook)
	mealPlanHandler := NewMealPlanHandler(svcs.MealPlan)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ErrorHandler())

	authHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(svcs.Auth))
	{
		analyzeGroup := protected.Group("")
		if analysisLimiter != nil {
			// free-tier analyses are metered, premium passes through
			analyzeGroup.Use(freeTierRateLimit(analysisLimiter))
		}
		analyzeHandler.RegisterRoutes(analyzeGroup)

		suggestionHandler.RegisterRoutes(protected)
		recipeBookHandler.RegisterRoutes(protected)

		premium := protected.Group("")
		premium.Use(middleware.RequirePremium())
		mealPlanHandler.RegisterRoutes(premium)
	}
}

func freeTierRateLimit(limiter *middleware.RateLimiter) gin.HandlerFunc {
	limit := limiter.RateLimitMiddleware()
	return func(c *gin.Context) {
		if c.GetString("subscription_tier") == types.TierPremium {
			c.Next()
			return
		}
		limit(c)
	}
}
