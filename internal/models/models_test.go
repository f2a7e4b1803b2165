package models

import (
	"testing"
)

func TestDestination_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dest    Destination
		wantErr bool
	}{
		{"extension", Destination{DestExtension, "1001"}, false},
		{"ring group", Destination{DestRingGroup, "rg-1"}, false},
		{"queue", Destination{DestQueue, "q-1"}, false},
		{"voicemail", Destination{DestVoicemail, "1001"}, false},
		{"ivr", Destination{DestIVR, "ivr-1"}, false},
		{"conference", Destination{DestConference, "3001"}, false},
		{"external", Destination{DestExternal, "+15551230000"}, false},
		{"unknown type", Destination{"carrier_pigeon", "coop"}, true},
		{"missing value", Destination{DestExtension, ""}, true},
		{"empty", Destination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dest.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDestination_String(t *testing.T) {
	d := Destination{DestExtension, "1001"}
	if got := d.String(); got != "extension:1001" {
		t.Errorf("String() = %q, want %q", got, "extension:1001")
	}
}

func TestTimeCondition_Validate(t *testing.T) {
	base := func() *TimeCondition {
		return &TimeCondition{
			TenantID: "t-1",
			Name:     "office hours",
			Timezone: "America/New_York",
			BusinessHours: map[string]DayWindow{
				"monday": {Enabled: true, StartTime: "09:00", EndTime: "17:00"},
			},
			Holidays: []Holiday{
				{Date: "2026-12-25", Name: "christmas", Enabled: true},
			},
			AfterHoursAction:      ActionVoicemail,
			AfterHoursDestination: Destination{DestVoicemail, "1001"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*TimeCondition)
		wantErr bool
	}{
		{"valid", func(tc *TimeCondition) {}, false},
		{"missing tenant", func(tc *TimeCondition) { tc.TenantID = "" }, true},
		{"bad timezone", func(tc *TimeCondition) { tc.Timezone = "Mars/Olympus" }, true},
		{"unknown weekday", func(tc *TimeCondition) {
			tc.BusinessHours["payday"] = DayWindow{Enabled: true, StartTime: "09:00", EndTime: "17:00"}
		}, true},
		{"bad clock format", func(tc *TimeCondition) {
			tc.BusinessHours["monday"] = DayWindow{Enabled: true, StartTime: "9am", EndTime: "17:00"}
		}, true},
		{"overnight window rejected", func(tc *TimeCondition) {
			tc.BusinessHours["monday"] = DayWindow{Enabled: true, StartTime: "22:00", EndTime: "06:00"}
		}, true},
		{"empty window rejected", func(tc *TimeCondition) {
			tc.BusinessHours["monday"] = DayWindow{Enabled: true, StartTime: "09:00", EndTime: "09:00"}
		}, true},
		{"disabled window skips clock checks", func(tc *TimeCondition) {
			tc.BusinessHours["tuesday"] = DayWindow{Enabled: false}
		}, false},
		{"bad holiday date", func(tc *TimeCondition) {
			tc.Holidays = []Holiday{{Date: "25/12/2026", Enabled: true}}
		}, true},
		{"voicemail action without destination", func(tc *TimeCondition) {
			tc.AfterHoursDestination = Destination{}
		}, true},
		{"hangup needs no destination", func(tc *TimeCondition) {
			tc.AfterHoursAction = ActionHangup
			tc.AfterHoursDestination = Destination{}
		}, false},
		{"unknown action", func(tc *TimeCondition) { tc.HolidayAction = "snooze" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := base()
			tt.mutate(tc)
			err := tc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeCondition_ActionFor(t *testing.T) {
	tc := &TimeCondition{
		BusinessHoursAction:   ActionContinue,
		AfterHoursAction:      ActionVoicemail,
		AfterHoursDestination: Destination{DestVoicemail, "1001"},
		HolidayAction:         ActionHangup,
	}

	action, dest := tc.ActionFor(PhaseAfterHours)
	if action != ActionVoicemail {
		t.Errorf("ActionFor(after_hours) action = %v, want voicemail", action)
	}
	if dest.Value != "1001" {
		t.Errorf("ActionFor(after_hours) destination = %v, want voicemail:1001", dest)
	}

	action, _ = tc.ActionFor(PhaseHoliday)
	if action != ActionHangup {
		t.Errorf("ActionFor(holiday) action = %v, want hangup", action)
	}

	// Unset action defaults to continue.
	empty := &TimeCondition{}
	action, _ = empty.ActionFor(PhaseBusiness)
	if action != ActionContinue {
		t.Errorf("ActionFor on unset condition = %v, want continue", action)
	}
}

func TestInboundRoute_Validate(t *testing.T) {
	route := &InboundRoute{
		TenantID:    "t-1",
		DIDNumber:   "+15551234567",
		Destination: Destination{DestExtension, "1001"},
	}
	if err := route.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	// Failover enabled requires a valid failover destination.
	route.FailoverEnabled = true
	if err := route.Validate(); err == nil {
		t.Error("Validate() should reject failover_enabled without failover destination")
	}
	route.FailoverDestination = Destination{DestVoicemail, "1001"}
	if err := route.Validate(); err != nil {
		t.Errorf("Validate() unexpected error with failover destination: %v", err)
	}
}

func TestOutboundRoute_Validate(t *testing.T) {
	route := &OutboundRoute{
		TenantID:    "t-1",
		DialPattern: "^0([0-9]+)$",
		StripDigits: 1,
		Prefix:      "9",
		TrunkID:     "trunk-1",
	}
	if err := route.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	route.StripDigits = -1
	if err := route.Validate(); err == nil {
		t.Error("Validate() should reject negative strip_digits")
	}

	route.StripDigits = 0
	route.TrunkID = ""
	if err := route.Validate(); err == nil {
		t.Error("Validate() should reject missing trunk_id")
	}
}

func TestDialplanRule_Validate(t *testing.T) {
	rule := &DialplanRule{
		TenantID:     "t-1",
		Context:      "default",
		Name:         "local-extensions",
		MatchPattern: "^(1[0-9]{3})$",
		Actions:      []RuleAction{{App: "bridge", Data: "user/$1"}},
	}
	if err := rule.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	rule.Actions = nil
	if err := rule.Validate(); err == nil {
		t.Error("Validate() should reject a rule without actions")
	}

	rule.Actions = []RuleAction{{App: ""}}
	if err := rule.Validate(); err == nil {
		t.Error("Validate() should reject an action without an app")
	}
}

func TestIVRMenu_Validate(t *testing.T) {
	menu := &IVRMenu{
		TenantID:  "t-1",
		Name:      "main-menu",
		GreetLong: "ivr/welcome.wav",
		Options: []IVROption{
			{Digit: "1", Destination: Destination{DestExtension, "1001"}},
			{Digit: "2", Destination: Destination{DestQueue, "q-1"}},
		},
	}
	if err := menu.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	menu.Options = append(menu.Options, IVROption{Digit: "1", Destination: Destination{DestExtension, "1002"}})
	if err := menu.Validate(); err == nil {
		t.Error("Validate() should reject duplicate keypress digits")
	}
}

func TestQueueAgent_Eligible(t *testing.T) {
	tests := []struct {
		name  string
		agent QueueAgent
		want  bool
	}{
		{"available and enabled", QueueAgent{Enabled: true, Status: AgentAvailable}, true},
		{"on break", QueueAgent{Enabled: true, Status: AgentOnBreak}, false},
		{"logged out", QueueAgent{Enabled: true, Status: AgentLoggedOut}, false},
		{"disabled", QueueAgent{Enabled: false, Status: AgentAvailable}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.agent.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRingGroup_EnabledMembers(t *testing.T) {
	group := &RingGroup{
		Members: []RingGroupMember{
			{ExtensionNumber: "1003", Priority: 2, Enabled: true},
			{ExtensionNumber: "1001", Priority: 1, Enabled: true},
			{ExtensionNumber: "1004", Priority: 1, Enabled: false},
			{ExtensionNumber: "1002", Priority: 1, Enabled: true},
		},
	}

	members := group.EnabledMembers()
	want := []string{"1001", "1002", "1003"}
	if len(members) != len(want) {
		t.Fatalf("EnabledMembers() returned %d members, want %d", len(members), len(want))
	}
	for i, w := range want {
		if members[i].ExtensionNumber != w {
			t.Errorf("EnabledMembers()[%d] = %s, want %s", i, members[i].ExtensionNumber, w)
		}
	}
}

func TestPolicySet_Lookups(t *testing.T) {
	set := &PolicySet{
		Queues:         []Queue{{ID: "q-1", Name: "support"}},
		RingGroups:     []RingGroup{{ID: "rg-1", Name: "sales"}},
		Trunks:         []Trunk{{ID: "trunk-1", Name: "carrier"}},
		TimeConditions: []TimeCondition{{ID: "tc-1", Name: "office"}},
		QueueAgents: []QueueAgent{
			{ID: "a-1", QueueID: "q-1"},
			{ID: "a-2", QueueID: "q-2"},
		},
	}

	if q, ok := set.Queue("q-1"); !ok || q.Name != "support" {
		t.Errorf("Queue(q-1) = %v, %v", q, ok)
	}
	if _, ok := set.Queue("missing"); ok {
		t.Error("Queue(missing) should not be found")
	}
	if g, ok := set.RingGroup("rg-1"); !ok || g.Name != "sales" {
		t.Errorf("RingGroup(rg-1) = %v, %v", g, ok)
	}
	if tr, ok := set.Trunk("trunk-1"); !ok || tr.Name != "carrier" {
		t.Errorf("Trunk(trunk-1) = %v, %v", tr, ok)
	}
	if tc, ok := set.TimeCondition("tc-1"); !ok || tc.Name != "office" {
		t.Errorf("TimeCondition(tc-1) = %v, %v", tc, ok)
	}
	if agents := set.AgentsFor("q-1"); len(agents) != 1 || agents[0].ID != "a-1" {
		t.Errorf("AgentsFor(q-1) = %v", agents)
	}
}
