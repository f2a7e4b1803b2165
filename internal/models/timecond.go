package models

import (
	"fmt"
	"regexp"
	"time"

	"call-router/internal/common/errors"
)

// DayPhase classifies an instant relative to a time condition.
type DayPhase string

const (
	PhaseBusiness   DayPhase = "business"
	PhaseAfterHours DayPhase = "after_hours"
	PhaseHoliday    DayPhase = "holiday"
)

// TimeAction is what a time condition does with a call for a given phase.
// ActionContinue means "proceed to normal routing as if no time condition
// existed".
type TimeAction string

const (
	ActionContinue  TimeAction = "continue"
	ActionVoicemail TimeAction = "voicemail"
	ActionExternal  TimeAction = "external"
	ActionHangup    TimeAction = "hangup"
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// DayWindow is the business-hours window for one weekday,
// expressed as "HH:MM" local wall-clock times.
type DayWindow struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Holiday is an exact calendar date override. An enabled holiday wins
// over the weekday window for that date.
type Holiday struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// TimeCondition routes calls differently by business hours, after hours
// and holidays. BusinessHours is keyed by lowercase weekday name
// ("monday" .. "sunday"); a missing weekday means after hours all day.
type TimeCondition struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`

	BusinessHours map[string]DayWindow `json:"business_hours"`
	Holidays      []Holiday            `json:"holidays"`

	BusinessHoursAction TimeAction `json:"business_hours_action"`
	AfterHoursAction    TimeAction `json:"after_hours_action"`
	HolidayAction       TimeAction `json:"holiday_action"`

	BusinessHoursDestination Destination `json:"business_hours_destination,omitempty"`
	AfterHoursDestination    Destination `json:"after_hours_destination,omitempty"`
	HolidayDestination       Destination `json:"holiday_destination,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var weekdayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// Validate checks the condition's timezone, windows, holidays and actions.
// Overnight windows (end before start) are an unsupported configuration
// and are rejected here rather than silently mis-evaluated.
func (tc *TimeCondition) Validate() error {
	if tc.TenantID == "" {
		return errors.ValidationError("time condition tenant_id is required")
	}
	if tc.Timezone != "" {
		if _, err := time.LoadLocation(tc.Timezone); err != nil {
			return errors.ValidationError("time condition timezone is not a valid IANA zone name")
		}
	}

	for day, window := range tc.BusinessHours {
		if !weekdayNames[day] {
			return errors.ValidationError(fmt.Sprintf("unknown weekday %q in business hours", day))
		}
		if !window.Enabled {
			continue
		}
		if !clockRe.MatchString(window.StartTime) || !clockRe.MatchString(window.EndTime) {
			return errors.ValidationError(fmt.Sprintf("business hours for %s must use HH:MM times", day))
		}
		if window.EndTime < window.StartTime {
			return errors.ValidationError(fmt.Sprintf("overnight window on %s (end before start) is not supported", day))
		}
		if window.EndTime == window.StartTime {
			return errors.ValidationError(fmt.Sprintf("empty window on %s (start equals end)", day))
		}
	}

	for _, h := range tc.Holidays {
		if _, err := time.Parse("2006-01-02", h.Date); err != nil {
			return errors.ValidationError(fmt.Sprintf("holiday date %q must use YYYY-MM-DD", h.Date))
		}
	}

	for _, pair := range []struct {
		action TimeAction
		dest   Destination
		label  string
	}{
		{tc.BusinessHoursAction, tc.BusinessHoursDestination, "business_hours"},
		{tc.AfterHoursAction, tc.AfterHoursDestination, "after_hours"},
		{tc.HolidayAction, tc.HolidayDestination, "holiday"},
	} {
		switch pair.action {
		case ActionContinue, ActionHangup:
		case ActionVoicemail, ActionExternal:
			if pair.dest.IsZero() {
				return errors.ValidationError(fmt.Sprintf("%s action %q requires a destination", pair.label, pair.action))
			}
		case "":
			// unset action defaults to continue
		default:
			return errors.ValidationError(fmt.Sprintf("unknown %s action %q", pair.label, pair.action))
		}
	}

	return nil
}

// ActionFor returns the configured action and destination for a phase.
// An unset action is treated as continue.
func (tc *TimeCondition) ActionFor(phase DayPhase) (TimeAction, Destination) {
	var action TimeAction
	var dest Destination
	switch phase {
	case PhaseBusiness:
		action, dest = tc.BusinessHoursAction, tc.BusinessHoursDestination
	case PhaseAfterHours:
		action, dest = tc.AfterHoursAction, tc.AfterHoursDestination
	case PhaseHoliday:
		action, dest = tc.HolidayAction, tc.HolidayDestination
	}
	if action == "" {
		action = ActionContinue
	}
	return action, dest
}
