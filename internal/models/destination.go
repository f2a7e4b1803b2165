package models

import (
	"fmt"

	"call-router/internal/common/errors"
)

// DestinationType identifies the kind of target a call is sent to.
// The set is closed: every consumer switches over all of these and
// rejects anything else at validation time.
type DestinationType string

const (
	DestExtension  DestinationType = "extension"
	DestRingGroup  DestinationType = "ring_group"
	DestQueue      DestinationType = "queue"
	DestVoicemail  DestinationType = "voicemail"
	DestIVR        DestinationType = "ivr"
	DestConference DestinationType = "conference"
	DestExternal   DestinationType = "external"
)

// Destination is a typed routing target. Value is interpreted per Type:
// an extension number, a ring group or queue ID, a voicemail box,
// an IVR menu ID, a conference room, or an external phone number.
type Destination struct {
	Type  DestinationType `json:"type"`
	Value string          `json:"value"`
}

// Validate checks that the destination type is one of the known kinds
// and that a target value is present.
func (d Destination) Validate() error {
	switch d.Type {
	case DestExtension, DestRingGroup, DestQueue, DestVoicemail, DestIVR, DestConference, DestExternal:
	default:
		return errors.ValidationError(fmt.Sprintf("unknown destination type %q", d.Type))
	}
	if d.Value == "" {
		return errors.ValidationError(fmt.Sprintf("destination of type %q requires a value", d.Type))
	}
	return nil
}

// String renders the destination in "type:value" form.
func (d Destination) String() string {
	return string(d.Type) + ":" + d.Value
}

// IsZero reports whether the destination is unset.
func (d Destination) IsZero() bool {
	return d.Type == "" && d.Value == ""
}
