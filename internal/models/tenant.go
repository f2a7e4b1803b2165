package models

import (
	"time"

	"call-router/internal/common/errors"
)

// Tenant is the scoping boundary for all routing policy. The engine
// never operates across tenants implicitly.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Timezone  string    `json:"timezone"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks tenant fields required before persistence.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return errors.ValidationError("tenant name is required")
	}
	if t.Domain == "" {
		return errors.ValidationError("tenant domain is required")
	}
	if t.Timezone != "" {
		if _, err := time.LoadLocation(t.Timezone); err != nil {
			return errors.ValidationError("tenant timezone is not a valid IANA zone name")
		}
	}
	return nil
}

// Extension is a registered endpoint a tenant user answers calls on.
type Extension struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	Number           string    `json:"number"`
	DisplayName      string    `json:"display_name"`
	VoicemailEnabled bool      `json:"voicemail_enabled"`
	RecordCalls      bool      `json:"record_calls"`
	Enabled          bool      `json:"enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks extension fields required before persistence.
func (e *Extension) Validate() error {
	if e.TenantID == "" {
		return errors.ValidationError("extension tenant_id is required")
	}
	if e.Number == "" {
		return errors.ValidationError("extension number is required")
	}
	return nil
}

// Trunk is an external carrier connection used for call delivery.
// Compiled into one gateway artifact per trunk.
type Trunk struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Gateway  string `json:"gateway"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Register bool   `json:"register"`
	// Down marks a trunk administratively or operationally unusable;
	// outbound resolution substitutes the failover trunk when set.
	Down      bool      `json:"down"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks trunk fields required before persistence.
func (t *Trunk) Validate() error {
	if t.TenantID == "" {
		return errors.ValidationError("trunk tenant_id is required")
	}
	if t.Name == "" {
		return errors.ValidationError("trunk name is required")
	}
	if t.Gateway == "" {
		return errors.ValidationError("trunk gateway is required")
	}
	return nil
}

// IVROption maps a caller keypress to a destination.
type IVROption struct {
	Digit       string      `json:"digit"`
	Destination Destination `json:"destination"`
}

// IVRMenu is an interactive voice menu. Compiled into one IVR artifact.
type IVRMenu struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	Name        string      `json:"name"`
	GreetLong   string      `json:"greet_long"`
	GreetShort  string      `json:"greet_short,omitempty"`
	Timeout     int         `json:"timeout"`
	MaxFailures int         `json:"max_failures"`
	Options     []IVROption `json:"options"`
	Enabled     bool        `json:"enabled"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Validate checks the menu and every keypress option.
func (m *IVRMenu) Validate() error {
	if m.TenantID == "" {
		return errors.ValidationError("ivr menu tenant_id is required")
	}
	if m.Name == "" {
		return errors.ValidationError("ivr menu name is required")
	}
	seen := make(map[string]bool, len(m.Options))
	for _, opt := range m.Options {
		if opt.Digit == "" {
			return errors.ValidationError("ivr option digit is required")
		}
		if seen[opt.Digit] {
			return errors.ValidationError("ivr option digit " + opt.Digit + " is duplicated")
		}
		seen[opt.Digit] = true
		if err := opt.Destination.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ConferenceRoom is a multi-party bridge reachable at an extension number.
type ConferenceRoom struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	PIN        string    `json:"pin,omitempty"`
	MaxMembers int       `json:"max_members"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks conference fields required before persistence.
func (c *ConferenceRoom) Validate() error {
	if c.TenantID == "" {
		return errors.ValidationError("conference tenant_id is required")
	}
	if c.Name == "" {
		return errors.ValidationError("conference name is required")
	}
	if c.Extension == "" {
		return errors.ValidationError("conference extension is required")
	}
	return nil
}
