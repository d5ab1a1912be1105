package model

import "fmt"

// NutritionRecord is a food entry from a nutrition database.
type NutritionRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Source       string  `json:"source"`
	ServingGrams float64 `json:"serving_grams"`
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatGrams     float64 `json:"fat_grams"`
}

// Validate ensures the record can be stored.
func (r *NutritionRecord) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("food name is required")
	}
	if r.ServingGrams < 0 || r.Calories < 0 || r.ProteinGrams < 0 || r.CarbsGrams < 0 || r.FatGrams < 0 {
		return fmt.Errorf("nutrition values for %q must not be negative", r.Name)
	}
	return nil
}

// CaloriesFor scales the record's calories to the given portion.
// A record without a serving size is returned unscaled.
func (r *NutritionRecord) CaloriesFor(grams float64) float64 {
	if r.ServingGrams <= 0 {
		return r.Calories
	}
	return r.Calories * grams / r.ServingGrams
}
