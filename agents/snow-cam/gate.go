package snowcam

import (
	"fmt"
	"time"
)

// GatePolicy holds the thresholds of the notification decision. Hours are
// fractional local hours (hour + minute/60).
type GatePolicy struct {
	QuietUntil            float64
	HolidayQuietUntil     float64
	ThrottleFrom          float64
	HolidayThrottleFrom   float64
	ThrottleInterval      time.Duration
	NightCutoff           float64
	MaxWindowTemperatureC float64
}

func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		QuietUntil:            6.2,
		HolidayQuietUntil:     7.2,
		ThrottleFrom:          7.5,
		HolidayThrottleFrom:   9.5,
		ThrottleInterval:      3 * time.Hour,
		NightCutoff:           19.4,
		MaxWindowTemperatureC: 3.0,
	}
}

// GateContext is everything the decision depends on
type GateContext struct {
	Now                  time.Time
	IsHoliday            bool
	SinceLastSend        time.Duration
	WindowMinTemperature float64
}

// Verdict is the outcome of Decide; Reason is empty when sending is allowed
type Verdict struct {
	Skip   bool
	Reason string
}

// FractionalHour returns hour + minute/60 in t's location
func FractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// ShouldSkip applies the time-of-day rules. Quiet hours end exactly at the
// threshold (6:12 is allowed); throttle and night cutoff start at theirs.
func (p GatePolicy) ShouldSkip(now time.Time, isHoliday bool, sinceLast time.Duration) bool {
	return p.timeReason(now, isHoliday, sinceLast) != ""
}

// SkipForTemperature skips when even the coldest forecast point is above the
// threshold; the tracked precipitation is unlikely then
func (p GatePolicy) SkipForTemperature(minTemperature float64) bool {
	return minTemperature > p.MaxWindowTemperatureC
}

// Decide combines the time-of-day gate and the temperature gate
func (p GatePolicy) Decide(gc GateContext) Verdict {
	if reason := p.timeReason(gc.Now, gc.IsHoliday, gc.SinceLastSend); reason != "" {
		return Verdict{Skip: true, Reason: reason}
	}
	if p.SkipForTemperature(gc.WindowMinTemperature) {
		return Verdict{
			Skip:   true,
			Reason: fmt.Sprintf("window minimum %.2f°C above %.2f°C", gc.WindowMinTemperature, p.MaxWindowTemperatureC),
		}
	}
	return Verdict{}
}

func (p GatePolicy) timeReason(now time.Time, isHoliday bool, sinceLast time.Duration) string {
	hour := FractionalHour(now)

	quietUntil, throttleFrom := p.QuietUntil, p.ThrottleFrom
	if isHoliday {
		quietUntil, throttleFrom = p.HolidayQuietUntil, p.HolidayThrottleFrom
	}

	if hour < quietUntil {
		return fmt.Sprintf("quiet hours until %.2f (holiday=%t)", quietUntil, isHoliday)
	}
	if hour >= throttleFrom && sinceLast < p.ThrottleInterval {
		return fmt.Sprintf("last send %s ago, less than %s", sinceLast.Round(time.Minute), p.ThrottleInterval)
	}
	if hour >= p.NightCutoff {
		return fmt.Sprintf("night cutoff at %.2f", p.NightCutoff)
	}
	return ""
}
