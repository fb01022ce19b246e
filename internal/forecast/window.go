package forecast

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"camwatch/internal/models"
)

// DefaultRadiusHours is the half-width of the window around now
const DefaultRadiusHours = 7.5

// ErrInsufficientData is returned when no forecast point falls inside the window
var ErrInsufficientData = errors.New("insufficient forecast data")

// UnicodeMinus replaces ASCII hyphens in user-facing text so the messenger
// does not read them as markup.
func UnicodeMinus(s string) string {
	return strings.ReplaceAll(s, "-", "−")
}

// ExtractWindow selects the points within radiusHours of now (inclusive on
// both ends) and computes summary statistics over their temperatures.
func ExtractWindow(series *Series, now time.Time, radiusHours float64) (*models.WindowStats, error) {
	stats := &models.WindowStats{
		Now:         now,
		RadiusHours: radiusHours,
	}

	if series != nil {
		for _, p := range series.Points() {
			offset := p.Time.Sub(now).Hours()
			if offset < -radiusHours || offset > radiusHours {
				continue
			}
			stats.Points = append(stats.Points, p)
			stats.Temperatures = append(stats.Temperatures, p.TemperatureC)
			stats.Lines = append(stats.Lines, FormatLine(p))
		}
	}

	if len(stats.Points) == 0 {
		return nil, fmt.Errorf("%w: no points within %.2fh of %s", ErrInsufficientData, radiusHours, now.Format(time.RFC3339))
	}

	temps := stats.Temperatures
	stats.Count = len(temps)
	stats.Median = median(temps)
	stats.Min = floats.Min(temps)
	stats.Max = floats.Max(temps)
	stats.Range = stats.Max - stats.Min
	if stats.Count == 1 {
		stats.Mean = temps[0]
	} else {
		stats.Mean, stats.StdDev = stat.MeanStdDev(temps, nil)
	}

	return stats, nil
}

// FormatLine renders one point for the caption. The kind is only shown when
// it adds something to the description.
func FormatLine(p models.ForecastPoint) string {
	text := p.Description
	if !strings.EqualFold(p.Kind, p.Description) && p.Kind != "" {
		text = fmt.Sprintf("%s (%s)", p.Description, p.Kind)
	}
	return UnicodeMinus(fmt.Sprintf("%s %7.2f %s", p.Time.Format("Mon 15:04"), p.TemperatureC, text))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
