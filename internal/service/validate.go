package service

import (
	"fmt"
	"math"
)

const (
	minPlausibleWeightKg = 30.0
	maxPlausibleWeightKg = 300.0
	largeDailyChangeKg   = 3.0

	maxPlausibleCalories = 10000
)

// ValidationResult reports whether an entry may enter the pipeline. A
// non-empty Warning on a valid result is advisory; callers decide whether to
// surface it.
type ValidationResult struct {
	IsValid bool   `json:"is_valid"`
	Warning string `json:"warning,omitempty"`
}

func ValidateWeightEntry(weightKg float64, previousWeightKg *float64) ValidationResult {
	if weightKg < minPlausibleWeightKg || weightKg > maxPlausibleWeightKg {
		return ValidationResult{
			IsValid: false,
			Warning: fmt.Sprintf("weight %.1f kg is outside reasonable range (%.0f-%.0f kg)", weightKg, minPlausibleWeightKg, maxPlausibleWeightKg),
		}
	}
	if previousWeightKg != nil {
		if change := math.Abs(weightKg - *previousWeightKg); change > largeDailyChangeKg {
			return ValidationResult{
				IsValid: true,
				Warning: fmt.Sprintf("Large weight change: %.1f kg since previous entry", change),
			}
		}
	}
	return ValidationResult{IsValid: true}
}

func ValidateCalorieEntry(calories int, tdee float64) ValidationResult {
	if calories < 0 {
		return ValidationResult{IsValid: false, Warning: "calories cannot be negative"}
	}
	if calories > maxPlausibleCalories {
		return ValidationResult{
			IsValid: false,
			Warning: fmt.Sprintf("calorie total %d is unreasonably high (limit %d)", calories, maxPlausibleCalories),
		}
	}
	if tdee > 0 && float64(calories) > 2*tdee {
		return ValidationResult{
			IsValid: true,
			Warning: fmt.Sprintf("intake %d kcal is more than double the estimated TDEE (%.0f kcal)", calories, tdee),
		}
	}
	return ValidationResult{IsValid: true}
}
