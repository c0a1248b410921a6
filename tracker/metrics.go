package tracker

import "math"

// Defaults used when a user has not filled in body metrics.
const (
	defaultStrideMeters = 0.75
	defaultWeightKg     = 70.0
	caloriesPerStep     = 0.04
)

// StrideMeters estimates stride length from height. Invalid heights fall back
// to an average stride.
func StrideMeters(heightCm float64) float64 {
	heightCm = clamp(heightCm)
	if heightCm == 0 {
		return defaultStrideMeters
	}
	return heightCm * 0.415 / 100
}

// DistanceKm converts a step count to kilometers using the user's stride.
func DistanceKm(steps int, heightCm float64) float64 {
	if steps <= 0 {
		return 0
	}
	return float64(steps) * StrideMeters(heightCm) / 1000
}

// Calories estimates energy burned from steps, scaled by body weight relative
// to a 70 kg reference.
func Calories(steps int, weightKg float64) float64 {
	if steps <= 0 {
		return 0
	}
	weightKg = clamp(weightKg)
	if weightKg == 0 {
		weightKg = defaultWeightKg
	}
	return float64(steps) * caloriesPerStep * (weightKg / defaultWeightKg)
}

// clamp maps NaN, Inf and negative values to zero.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
