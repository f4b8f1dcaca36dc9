package analysis

// Macros are nutrition totals for an item or a meal. Calories are kcal, the
// rest are grams.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// FoodItem is one recognised component of the photo.
type FoodItem struct {
	Name    string `json:"name"`
	Portion string `json:"portion"`
	Macros  Macros `json:"macros"`
}

// Result is the structured estimate for one photo. The sum of item macros is
// not required to equal TotalMacros.
type Result struct {
	IsFood          bool       `json:"isFood"`
	ConfidenceScore float64    `json:"confidenceScore"`
	Summary         string     `json:"summary"`
	FoodItems       []FoodItem `json:"foodItems"`
	TotalMacros     Macros     `json:"totalMacros"`
}

// Clone returns a deep copy so callers can edit without aliasing FoodItems.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.FoodItems = append([]FoodItem(nil), r.FoodItems...)
	return &out
}
