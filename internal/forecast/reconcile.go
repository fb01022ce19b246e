package forecast

import (
	"sort"
	"time"

	"camwatch/internal/models"
)

// DefaultNewWeight is the share a later stream gets when its temperature
// disagrees with the baseline. Tuned against the rounding bias between the
// metric and USCS feeds; treat as a fixed policy constant.
const DefaultNewWeight = 0.72

// Series is the reconciled forecast, one point per distinct minute
type Series struct {
	points map[int64]*models.ForecastPoint
}

func newSeries() *Series {
	return &Series{points: make(map[int64]*models.ForecastPoint)}
}

// Len returns the number of distinct timestamps
func (s *Series) Len() int {
	return len(s.points)
}

// At returns the point recorded for t, if any
func (s *Series) At(t time.Time) (models.ForecastPoint, bool) {
	p, ok := s.points[t.Unix()]
	if !ok {
		return models.ForecastPoint{}, false
	}
	return *p, true
}

// Points returns a copy of all points in ascending time order
func (s *Series) Points() []models.ForecastPoint {
	out := make([]models.ForecastPoint, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// fieldPolicy merges one field of an incoming observation into a stored point
type fieldPolicy struct {
	name  string
	merge func(r *Reconciler, stored *models.ForecastPoint, incoming models.ForecastPoint)
}

func numericField(name string, get func(p *models.ForecastPoint) *float64) fieldPolicy {
	return fieldPolicy{
		name: name,
		merge: func(r *Reconciler, stored *models.ForecastPoint, incoming models.ForecastPoint) {
			old, next := get(stored), *get(&incoming)
			if *old != next {
				*old = r.blend(*old, next)
			}
		},
	}
}

func textField(name string, get func(p *models.ForecastPoint) *string) fieldPolicy {
	return fieldPolicy{
		name: name,
		merge: func(_ *Reconciler, stored *models.ForecastPoint, incoming models.ForecastPoint) {
			old, next := get(stored), *get(&incoming)
			if *old != next {
				*old = *old + ", " + next
			}
		},
	}
}

var fieldPolicies = []fieldPolicy{
	numericField("temperature", func(p *models.ForecastPoint) *float64 { return &p.TemperatureC }),
	textField("description", func(p *models.ForecastPoint) *string { return &p.Description }),
	textField("kind", func(p *models.ForecastPoint) *string { return &p.Kind }),
}

// Reconciler folds several forecast streams into one Series.
//
// The fold is order dependent: the first stream is the baseline and every
// later stream is applied as a correction weighted by NewWeight. Callers must
// pass streams in the same order on every run.
type Reconciler struct {
	NewWeight float64
}

func NewReconciler() *Reconciler {
	return &Reconciler{NewWeight: DefaultNewWeight}
}

// Merge reconciles the streams left to right
func (r *Reconciler) Merge(streams []models.Stream) *Series {
	series := newSeries()
	for _, stream := range streams {
		for _, obs := range stream.Observations {
			r.apply(series, stream, obs)
		}
	}
	return series
}

func (r *Reconciler) apply(series *Series, stream models.Stream, obs models.RawObservation) {
	unit := obs.Unit
	if unit == "" {
		unit = stream.Unit
	}

	incoming := models.ForecastPoint{
		Time:         Timestamp(obs),
		TemperatureC: NormalizeTemperature(obs.Temperature, unit),
		Description:  obs.Description,
		Kind:         obs.Kind,
	}

	key := incoming.Time.Unix()
	stored, exists := series.points[key]
	if !exists {
		series.points[key] = &incoming
		return
	}

	for _, policy := range fieldPolicies {
		policy.merge(r, stored, incoming)
	}
}

func (r *Reconciler) blend(old, next float64) float64 {
	return old*(1-r.NewWeight) + next*r.NewWeight
}

// Timestamp combines the observation's day with its own hour and minute.
// Seconds are dropped, so observations within the same minute collide.
func Timestamp(obs models.RawObservation) time.Time {
	loc := obs.Day.Location()
	y, m, d := obs.Day.Date()
	return time.Date(y, m, d, obs.Hour, obs.Minute, 0, 0, loc)
}
