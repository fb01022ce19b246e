package snowcam

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
)

// HolidayCalendar answers whether a date is a public holiday
type HolidayCalendar interface {
	IsHoliday(t time.Time) bool
}

// IsRestDay is true on Sundays and on calendar holidays
func IsRestDay(calendar HolidayCalendar, t time.Time) bool {
	if t.Weekday() == time.Sunday {
		return true
	}
	return calendar != nil && calendar.IsHoliday(t)
}

var germanStates = map[string][]*cal.Holiday{
	"BB": de.HolidaysBB,
	"BE": de.HolidaysBE,
	"BW": de.HolidaysBW,
	"BY": de.HolidaysBY,
	"HB": de.HolidaysHB,
	"HE": de.HolidaysHE,
	"HH": de.HolidaysHH,
	"MV": de.HolidaysMV,
	"NI": de.HolidaysNI,
	"NW": de.HolidaysNW,
	"RP": de.HolidaysRP,
	"SH": de.HolidaysSH,
	"SL": de.HolidaysSL,
	"SN": de.HolidaysSN,
	"ST": de.HolidaysST,
	"TH": de.HolidaysTH,
}

// RegionalCalendar wraps a rickar/cal business calendar for one region
type RegionalCalendar struct {
	calendar *cal.BusinessCalendar
}

// NewRegionalCalendar builds the public-holiday calendar for a country and
// optional subdivision (ISO 3166-2 suffix, e.g. "BY")
func NewRegionalCalendar(country, subdivision string) (*RegionalCalendar, error) {
	country = strings.ToUpper(country)
	subdivision = strings.ToUpper(subdivision)

	if country != "DE" {
		return nil, fmt.Errorf("unsupported holiday country %q", country)
	}

	holidays := de.Holidays
	if subdivision != "" {
		regional, ok := germanStates[subdivision]
		if !ok {
			return nil, fmt.Errorf("unsupported subdivision %q for %s", subdivision, country)
		}
		holidays = regional
	}

	c := cal.NewBusinessCalendar()
	c.AddHoliday(holidays...)
	return &RegionalCalendar{calendar: c}, nil
}

func (r *RegionalCalendar) IsHoliday(t time.Time) bool {
	actual, observed, _ := r.calendar.IsHoliday(t)
	return actual || observed
}
