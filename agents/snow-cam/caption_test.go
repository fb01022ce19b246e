package snowcam

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"camwatch/internal/models"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Light rain (showers).", `Light rain \(showers\)\.`},
		{"abc XYZ 123", "abc XYZ 123"},
		{"_*[]()~>#+-=|{}.!", `\_\*\[\]\(\)\~\>\#\+\-\=\|\{\}\.\!`},
		{"Schnee: 5°C, ±0", "Schnee: 5°C, ±0"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EscapeMarkdown(tt.input), "EscapeMarkdown(%q)", tt.input)
	}
}

func TestCaptionFormat(t *testing.T) {
	stats := &models.WindowStats{
		Now:          time.Date(2026, time.January, 14, 9, 30, 0, 0, time.UTC),
		RadiusHours:  7.5,
		Count:        4,
		Median:       1,
		Mean:         1,
		Min:          -2,
		Max:          4,
		Range:        6,
		StdDev:       2.581988897,
		Temperatures: []float64{-2, 0, 2, 4},
		Lines: []string{
			"Wed 06:00   −2.00 Light snow (Leichter Schneefall)",
			"Wed 09:00    0.00 Snow",
		},
	}

	caption := CaptionFormatter{Title: "Schnee-Cam"}.Format(stats)
	lines := strings.Split(caption, "\n")

	assert.Equal(t, `Schnee\-Cam 14\.01\. 09:30 ±7\.5h`, lines[0])
	assert.Equal(t, "`min=−2.00 med=1.00 avg=1.00 max=4.00 rge=6.00 dev=2.58`", lines[1])
	assert.Equal(t, "`[−2.0, 0.0, 2.0, 4.0]`", lines[2])
	assert.Equal(t, "```", lines[3])
	assert.Equal(t, "Wed 06:00   −2.00 Light snow (Leichter Schneefall)", lines[4])
	assert.Equal(t, "Wed 09:00    0.00 Snow", lines[5])
	assert.Equal(t, "```", lines[6])
	assert.Len(t, lines, 7)
}

func TestCaptionFormatEscapesCodeDelimiters(t *testing.T) {
	stats := &models.WindowStats{
		Now:          time.Date(2026, time.January, 14, 9, 30, 0, 0, time.UTC),
		RadiusHours:  1,
		Temperatures: []float64{1},
		Lines:        []string{"Wed 09:00    1.00 odd `quote` \\ slash"},
	}

	caption := CaptionFormatter{}.Format(stats)
	assert.Contains(t, caption, "odd \\`quote\\` \\\\ slash")
	assert.True(t, strings.HasPrefix(caption, "Forecast "))
}
