package forecast

import "camwatch/internal/models"

// ToCelsius converts a Fahrenheit reading to Celsius
func ToCelsius(fahrenheit float64) float64 {
	return (fahrenheit - 32) * 5 / 9
}

// NormalizeTemperature returns the reading in Celsius regardless of its source unit
func NormalizeTemperature(value float64, unit models.Unit) float64 {
	if unit == models.Fahrenheit {
		return ToCelsius(value)
	}
	return value
}
