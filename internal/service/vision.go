package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/snapdish/snapdish-backend/internal/cache"
	"github.com/snapdish/snapdish-backend/internal/imaging"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// minIngredientConfidence is the parse-time cutoff; detections at exactly
// this confidence are retained
const minIngredientConfidence = 0.3

const visionPrompt = `You are a food recognition system. Analyze the photo and list every
ingredient you can identify. Respond only with JSON in this exact structure:
{
    "ingredients": [
        {"name": "tomato", "confidence": 0.95, "category": "vegetable"}
    ],
    "overall_confidence": 0.9
}
Confidence values must be numbers between 0 and 1. Category is one of:
vegetable, fruit, meat, seafood, dairy, grain, spice, herb, condiment, other.
If the photo contains no food, return an empty ingredients array and a low
overall_confidence.`

// VisionService analyzes dish photos through the AI endpoint, caching
// results under the photo's metadata fingerprint
type VisionService struct {
	ai    *AIClient
	cache *cache.ResultCache
}

// NewVisionService creates a new VisionService instance
func NewVisionService(ai *AIClient, resultCache *cache.ResultCache) *VisionService {
	return &VisionService{ai: ai, cache: resultCache}
}

// Analyze returns the ingredients detected in the processed photo. A
// cached result for the same fingerprint is reused; concurrent calls for
// one fingerprint share a single remote request. The bool reports whether
// the result came from cache.
func (s *VisionService) Analyze(ctx context.Context, img *imaging.ProcessedImage) (*types.VisionResult, bool, error) {
	raw, fromCache, err := s.cache.GetOrFetch(ctx, img.CacheKey, func(ctx context.Context) (json.RawMessage, error) {
		result, remoteErr := s.analyzeRemote(ctx, img)
		if remoteErr != nil {
			return nil, remoteErr
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, false, err
	}

	var result types.VisionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, &types.CacheError{Op: "decode", Err: err}
	}
	return &result, fromCache, nil
}

func (s *VisionService) analyzeRemote(ctx context.Context, img *imaging.ProcessedImage) (*types.VisionResult, error) {
	start := time.Now()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img.Payload)
	messages := []Message{
		{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
			},
		},
	}

	content, err := s.ai.Chat(ctx, messages, 1000, 0.2)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Ingredients       []types.Ingredient `json:"ingredients"`
		OverallConfidence *float64           `json:"overall_confidence"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &types.ProcessingError{
			Kind:    types.ProcessingServiceFailure,
			Message: "failed to parse vision response",
			Err:     err,
		}
	}
	if payload.Ingredients == nil || payload.OverallConfidence == nil {
		return nil, &types.ProcessingError{
			Kind:    types.ProcessingServiceFailure,
			Message: "vision response missing required fields",
		}
	}

	kept := make([]types.Ingredient, 0, len(payload.Ingredients))
	for _, ing := range payload.Ingredients {
		if ing.Confidence >= minIngredientConfidence {
			kept = append(kept, ing)
		}
	}

	if len(kept) == 0 && *payload.OverallConfidence < minIngredientConfidence {
		return nil, &types.ProcessingError{
			Kind:    types.ProcessingNoFoodDetected,
			Message: fmt.Sprintf("no food detected (overall confidence %.2f)", *payload.OverallConfidence),
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	elapsed := time.Since(start).Milliseconds()
	log.Printf("[VisionService] analyzed %s: %d ingredients in %dms", img.CacheKey[:12], len(kept), elapsed)

	return &types.VisionResult{
		Ingredients:       kept,
		OverallConfidence: *payload.OverallConfidence,
		ProcessingTimeMs:  elapsed,
		Success:           true,
	}, nil
}
