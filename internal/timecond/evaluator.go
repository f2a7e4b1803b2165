// Package timecond classifies instants against tenant time conditions:
// business hours, after hours, or holiday. Evaluation is a pure
// function of the condition and the instant and is safe to call
// concurrently.
package timecond

import (
	"strings"
	"time"

	"call-router/internal/common/errors"
	"call-router/internal/models"
)

// Evaluation is the full outcome of classifying an instant, exposed
// for the preview/testing API as well as the resolver.
type Evaluation struct {
	Phase       models.DayPhase    `json:"phase"`
	Action      models.TimeAction  `json:"action"`
	Destination models.Destination `json:"destination,omitempty"`
	LocalTime   time.Time          `json:"local_time"`
}

// Evaluate classifies an instant against a time condition.
//
// The instant is converted to the condition's timezone. An enabled
// holiday with the local calendar date wins outright. Otherwise the
// weekday's window decides: present, enabled, and start <= local time
// < end means business; anything else is after hours. A missing
// weekday entry means after hours all day.
func Evaluate(tc *models.TimeCondition, instant time.Time) (models.DayPhase, error) {
	eval, err := EvaluateFull(tc, instant)
	if err != nil {
		return "", err
	}
	return eval.Phase, nil
}

// EvaluateFull classifies an instant and resolves the configured
// action and destination for the resulting phase.
func EvaluateFull(tc *models.TimeCondition, instant time.Time) (Evaluation, error) {
	loc := time.UTC
	if tc.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(tc.Timezone)
		if err != nil {
			return Evaluation{}, errors.ValidationError("time condition timezone is not a valid IANA zone name").
				WithContext("timezone", tc.Timezone)
		}
	}

	local := instant.In(loc)
	phase := classify(tc, local)
	action, dest := tc.ActionFor(phase)

	return Evaluation{
		Phase:       phase,
		Action:      action,
		Destination: dest,
		LocalTime:   local,
	}, nil
}

func classify(tc *models.TimeCondition, local time.Time) models.DayPhase {
	date := local.Format("2006-01-02")
	for _, h := range tc.Holidays {
		if h.Enabled && h.Date == date {
			return models.PhaseHoliday
		}
	}

	weekday := strings.ToLower(local.Weekday().String())
	window, ok := tc.BusinessHours[weekday]
	if !ok || !window.Enabled {
		return models.PhaseAfterHours
	}

	// "HH:MM" strings compare correctly as wall-clock times.
	clock := local.Format("15:04")
	if window.StartTime <= clock && clock < window.EndTime {
		return models.PhaseBusiness
	}
	return models.PhaseAfterHours
}
