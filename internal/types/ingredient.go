package types

// Ingredient is a single item detected in a dish photo
type Ingredient struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// VisionResult is the terminal outcome of one photo analysis. It is never
// mutated after creation and is cached verbatim under the photo's
// fingerprint.
type VisionResult struct {
	Ingredients       []Ingredient `json:"ingredients"`
	OverallConfidence float64      `json:"overall_confidence"`
	ProcessingTimeMs  int64        `json:"processing_time_ms"`
	Success           bool         `json:"success"`
	Error             string       `json:"error,omitempty"`
}

// IngredientNames returns just the detected names, in stored order
func (v *VisionResult) IngredientNames() []string {
	names := make([]string, 0, len(v.Ingredients))
	for _, ing := range v.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
