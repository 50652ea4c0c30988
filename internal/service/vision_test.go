package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapdish/snapdish-backend/internal/imaging"
	"github.com/snapdish/snapdish-backend/internal/types"
)

func testImage(key string) *imaging.ProcessedImage {
	return &imaging.ProcessedImage{
		Payload:  []byte("jpeg-bytes"),
		Width:    800,
		Height:   600,
		CacheKey: key,
	}
}

func TestAnalyzeKeepsConfidenceBoundary(t *testing.T) {
	content := `{
		"ingredients": [
			{"name": "tomato", "confidence": 0.95, "category": "vegetable"},
			{"name": "basil", "confidence": 0.3, "category": "herb"},
			{"name": "maybe-garlic", "confidence": 0.29999, "category": "spice"}
		],
		"overall_confidence": 0.9
	}`
	srv, _ := contentServer(t, content)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	result, fromCache, err := svc.Analyze(context.Background(), testImage("boundary-key-000"))
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, result.Ingredients, 2, "detections at exactly 0.3 stay, below it go")
	assert.Equal(t, "tomato", result.Ingredients[0].Name)
	assert.Equal(t, "basil", result.Ingredients[1].Name)
	assert.Equal(t, 0.9, result.OverallConfidence)
	assert.True(t, result.Success)
}

func TestAnalyzeSortsByConfidenceDescending(t *testing.T) {
	content := `{
		"ingredients": [
			{"name": "salt", "confidence": 0.4, "category": "spice"},
			{"name": "egg", "confidence": 0.99, "category": "dairy"},
			{"name": "flour", "confidence": 0.7, "category": "grain"}
		],
		"overall_confidence": 0.8
	}`
	srv, _ := contentServer(t, content)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	result, _, err := svc.Analyze(context.Background(), testImage("sort-order-key-01"))
	require.NoError(t, err)
	names := make([]string, len(result.Ingredients))
	for i, ing := range result.Ingredients {
		names[i] = ing.Name
	}
	assert.Equal(t, []string{"egg", "flour", "salt"}, names)
}

func TestAnalyzeNoFoodDetected(t *testing.T) {
	srv, _ := contentServer(t, `{"ingredients": [], "overall_confidence": 0.2}`)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	_, _, err := svc.Analyze(context.Background(), testImage("no-food-key-0001"))

	var procErr *types.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, types.ProcessingNoFoodDetected, procErr.Kind)
}

func TestAnalyzeEmptyIngredientsHighConfidence(t *testing.T) {
	// the model is confident it sees food but names nothing; that is a
	// valid empty result, not a no-food error
	srv, _ := contentServer(t, `{"ingredients": [], "overall_confidence": 0.6}`)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	result, _, err := svc.Analyze(context.Background(), testImage("empty-high-key-01"))
	require.NoError(t, err)
	assert.Empty(t, result.Ingredients)
	assert.True(t, result.Success)
}

func TestAnalyzeAllDetectionsBelowCutoff(t *testing.T) {
	content := `{
		"ingredients": [{"name": "smudge", "confidence": 0.1, "category": "other"}],
		"overall_confidence": 0.15
	}`
	srv, _ := contentServer(t, content)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	_, _, err := svc.Analyze(context.Background(), testImage("low-conf-key-001"))

	var procErr *types.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, types.ProcessingNoFoodDetected, procErr.Kind)
}

func TestAnalyzeMissingFields(t *testing.T) {
	cases := map[string]string{
		"no overall confidence": `{"ingredients": []}`,
		"no ingredients":        `{"overall_confidence": 0.9}`,
		"not json":              `the photo looks delicious`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := contentServer(t, content)
			svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

			_, _, err := svc.Analyze(context.Background(), testImage("missing-field-key"))

			var procErr *types.ProcessingError
			require.ErrorAs(t, err, &procErr)
			assert.Equal(t, types.ProcessingServiceFailure, procErr.Kind)
		})
	}
}

func TestAnalyzeCachesByFingerprint(t *testing.T) {
	content := `{
		"ingredients": [{"name": "rice", "confidence": 0.9, "category": "grain"}],
		"overall_confidence": 0.85
	}`
	srv, calls := contentServer(t, content)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	first, fromCache, err := svc.Analyze(context.Background(), testImage("same-photo-key-1"))
	require.NoError(t, err)
	assert.False(t, fromCache)

	second, fromCache, err := svc.Analyze(context.Background(), testImage("same-photo-key-1"))
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first.Ingredients, second.Ingredients)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	// a different fingerprint is a different photo
	_, fromCache, err = svc.Analyze(context.Background(), testImage("other-photo-key-2"))
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestAnalyzeDoesNotCacheFailures(t *testing.T) {
	srv, calls := contentServer(t, `{"ingredients": [], "overall_confidence": 0.1}`)
	svc := NewVisionService(testAIClient(srv.URL, 1), newServiceCache(t))

	for i := 0; i < 2; i++ {
		_, _, err := svc.Analyze(context.Background(), testImage("failed-photo-key"))
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}
