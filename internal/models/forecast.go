package models

import "time"

// Unit identifies the temperature scale a source reports in
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// RawObservation is one source's view of a forecast slot before merging
type RawObservation struct {
	Day         time.Time `json:"day"` // calendar day, only Y/M/D and location are used
	Hour        int       `json:"hour"`
	Minute      int       `json:"minute"`
	Temperature float64   `json:"temperature"` // in Unit
	Unit        Unit      `json:"unit"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
}

// Stream is an ordered set of observations from one source
type Stream struct {
	Name         string           `json:"name"`
	Unit         Unit             `json:"unit"`
	Observations []RawObservation `json:"observations"`
}

// ForecastPoint is the reconciled record for a single timestamp
type ForecastPoint struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature_c"`
	Description  string    `json:"description"`
	Kind         string    `json:"kind"`
}

// WindowStats summarizes the forecast points around a reference instant
type WindowStats struct {
	Now         time.Time       `json:"now"`
	RadiusHours float64         `json:"radius_hours"`
	Count       int             `json:"count"`
	Median      float64         `json:"median"`
	Mean        float64         `json:"mean"`
	Min         float64         `json:"min"`
	Max         float64         `json:"max"`
	Range       float64         `json:"range"`
	StdDev      float64         `json:"stdev"`
	Points      []ForecastPoint `json:"points"`
	// Temperatures and Lines follow the order of Points
	Temperatures []float64 `json:"temperatures"`
	Lines        []string  `json:"lines"`
}
