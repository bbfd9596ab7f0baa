package profile

import "fmt"

// BMINotAvailable is the prompt context used when height or weight is missing.
const BMINotAvailable = "Not available"

// Profile is the immutable user snapshot captured at intake.
type Profile struct {
	Name        string  `json:"name"`
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	UnitSystem  string  `json:"unitSystem"`
	Language    string  `json:"language"`
	Diet        string  `json:"diet"`
	Occupation  string  `json:"occupation"`
	SleepHabits string  `json:"sleepHabits"`
}

// BMIContext derives a body-mass index string for prompt context.
// Height is centimeters and weight kilograms for the metric system,
// inches and pounds for imperial. Missing measurements yield "Not available".
func (p Profile) BMIContext() string {
	if p.Height <= 0 || p.Weight <= 0 {
		return BMINotAvailable
	}
	var bmi float64
	switch p.UnitSystem {
	case "imperial":
		bmi = 703 * p.Weight / (p.Height * p.Height)
	default:
		meters := p.Height / 100
		bmi = p.Weight / (meters * meters)
	}
	return fmt.Sprintf("%.1f", bmi)
}

// PreferredLanguage returns the requested output language, defaulting to English.
func (p Profile) PreferredLanguage() string {
	if p.Language == "" {
		return "English"
	}
	return p.Language
}
