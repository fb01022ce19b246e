package snowcam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedCalendar map[string]bool

func (f fixedCalendar) IsHoliday(t time.Time) bool { return f[t.Format("2006-01-02")] }

func TestIsRestDay(t *testing.T) {
	cal := fixedCalendar{"2026-01-06": true}

	assert.True(t, IsRestDay(cal, time.Date(2026, time.January, 18, 10, 0, 0, 0, time.UTC)), "Sunday")
	assert.True(t, IsRestDay(cal, time.Date(2026, time.January, 6, 10, 0, 0, 0, time.UTC)), "holiday")
	assert.False(t, IsRestDay(cal, at(10, 0)), "ordinary Wednesday")
	assert.False(t, IsRestDay(nil, at(10, 0)))
}

func TestRegionalCalendar(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("timezone data unavailable")
	}

	bavaria, err := NewRegionalCalendar("de", "by")
	assert.NoError(t, err)
	// Epiphany is a public holiday in Bavaria but not nationwide
	epiphany := time.Date(2026, time.January, 6, 9, 0, 0, 0, berlin)
	assert.True(t, bavaria.IsHoliday(epiphany))
	assert.True(t, bavaria.IsHoliday(time.Date(2026, time.December, 25, 9, 0, 0, 0, berlin)))
	assert.False(t, bavaria.IsHoliday(time.Date(2026, time.January, 14, 9, 0, 0, 0, berlin)))

	national, err := NewRegionalCalendar("DE", "")
	assert.NoError(t, err)
	assert.False(t, national.IsHoliday(epiphany))
	assert.True(t, national.IsHoliday(time.Date(2026, time.October, 3, 9, 0, 0, 0, berlin)))

	_, err = NewRegionalCalendar("FR", "")
	assert.Error(t, err)
	_, err = NewRegionalCalendar("DE", "XX")
	assert.Error(t, err)
}
