// Package compiler turns a tenant's policy set into switch-loadable
// artifacts. Compilation is a pure, deterministic transform: the same
// policy set always yields the same artifact list, which backup and
// diff tooling relies on.
//
// Artifacts reference other entities by stable key (queue ID, gateway
// name) instead of inlining them, so changing a queue does not force
// a recompile of every route pointing at it. The switch's textual
// form is produced only at the render boundary.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
	"call-router/internal/models"
)

// Switch dialplan contexts artifacts are placed in.
const (
	ContextPublic   = "public"   // inbound, from carriers
	ContextInternal = "internal" // tenant endpoints dialing out
)

// Compiler compiles policy sets into artifacts.
type Compiler struct {
	logger logging.Logger
}

// New creates a compiler.
func New(logger logging.Logger) *Compiler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Compiler{logger: logger}
}

// Compile produces the full artifact list for a policy set: one
// gateway artifact per trunk, one dialplan artifact per inbound and
// outbound route and raw rule, one extensions artifact per extension,
// ring group and queue, one IVR artifact per menu, and one conference
// artifact per room. Disabled entities still compile (marked
// disabled) so a deploy can flip them without a policy edit.
func (c *Compiler) Compile(policy *models.PolicySet) ([]models.CompiledArtifact, error) {
	if policy == nil {
		return nil, errors.ValidationError("policy set is required")
	}

	var artifacts []models.CompiledArtifact

	for _, trunk := range sortedTrunks(policy.Trunks) {
		artifacts = append(artifacts, compileTrunk(trunk))
	}

	for _, ext := range policy.Extensions {
		artifacts = append(artifacts, compileExtension(policy, ext))
	}
	for _, group := range policy.RingGroups {
		artifact, err := compileRingGroup(group)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	for _, queue := range policy.Queues {
		artifact, err := compileQueue(queue)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}

	for _, route := range policy.InboundRoutes {
		artifact, err := compileInboundRoute(policy, route)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	for _, route := range sortedOutbound(policy.OutboundRoutes) {
		artifact, err := compileOutboundRoute(policy, route)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	for _, rule := range sortedRules(policy.DialplanRules) {
		artifacts = append(artifacts, compileRule(rule))
	}

	for _, menu := range policy.IVRMenus {
		artifact, err := compileIVRMenu(menu)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	for _, room := range policy.ConferenceRooms {
		artifacts = append(artifacts, compileConference(room))
	}

	c.logger.Debug("Policy set compiled",
		logging.String("tenant_id", policy.Tenant.ID),
		logging.Int("artifacts", len(artifacts)))
	return artifacts, nil
}

func compileTrunk(trunk models.Trunk) models.CompiledArtifact {
	actions := []models.ArtifactAction{
		{App: "gateway", Data: trunk.Gateway},
	}
	if trunk.Username != "" {
		actions = append(actions, models.ArtifactAction{App: "username", Data: trunk.Username})
	}
	if trunk.Password != "" {
		actions = append(actions, models.ArtifactAction{App: "password", Data: trunk.Password})
	}
	actions = append(actions, models.ArtifactAction{App: "register", Data: fmt.Sprintf("%t", trunk.Register)})

	return models.CompiledArtifact{
		Kind:    models.ArtifactGateways,
		Context: ContextPublic,
		Name:    gatewayRef(trunk.ID),
		Actions: actions,
		Enabled: trunk.Enabled,
	}
}

func compileExtension(policy *models.PolicySet, ext models.Extension) models.CompiledArtifact {
	actions := []models.ArtifactAction{}
	if ext.RecordCalls {
		actions = append(actions, recordAction(policy.Tenant.ID))
	}
	actions = append(actions, models.ArtifactAction{App: "bridge", Data: "user/" + ext.Number})

	var fallback *models.ArtifactAction
	if ext.VoicemailEnabled {
		fallback = &models.ArtifactAction{App: "voicemail", Data: ext.Number}
	}
	actions = append(actions, hangupAction())

	return models.CompiledArtifact{
		Kind:           models.ArtifactExtensions,
		Context:        ContextInternal,
		Name:           "ext_" + ext.Number,
		MatchCondition: "^" + ext.Number + "$",
		Actions:        actions,
		Fallback:       fallback,
		Enabled:        ext.Enabled,
	}
}

func compileRingGroup(group models.RingGroup) (models.CompiledArtifact, error) {
	members := group.EnabledMembers()
	dialStrings := make([]string, len(members))
	for i, m := range members {
		dialStrings[i] = "user/" + m.ExtensionNumber
	}

	separator := ","
	if group.Strategy == models.RingSequence {
		separator = "|"
	}

	actions := []models.ArtifactAction{
		{App: "set", Data: fmt.Sprintf("call_timeout=%d", group.RingTimeout)},
		{App: "bridge", Data: strings.Join(dialStrings, separator)},
	}

	fallback, err := fallbackFor(group.FailoverDestination)
	if err != nil {
		return models.CompiledArtifact{}, err
	}
	actions = append(actions, hangupAction())

	return models.CompiledArtifact{
		Kind:           models.ArtifactExtensions,
		Context:        ContextInternal,
		Name:           ringGroupRef(group.ID),
		MatchCondition: "^" + group.Extension + "$",
		Actions:        actions,
		Fallback:       fallback,
		Enabled:        group.Enabled,
	}, nil
}

func compileQueue(queue models.Queue) (models.CompiledArtifact, error) {
	strategy := queue.Strategy
	if strategy == "" {
		strategy = models.StrategyLongestIdle
	}

	actions := []models.ArtifactAction{
		{App: "set", Data: "cc_strategy=" + string(strategy)},
		{App: "set", Data: fmt.Sprintf("cc_max_wait_time=%d", queue.MaxWaitTime)},
		{App: "callcenter", Data: queueRef(queue.ID)},
	}
	if queue.MOHSound != "" {
		actions = append([]models.ArtifactAction{{App: "set", Data: "cc_moh_sound=" + queue.MOHSound}}, actions...)
	}

	fallback, err := fallbackFor(queue.FailoverDestination)
	if err != nil {
		return models.CompiledArtifact{}, err
	}
	actions = append(actions, hangupAction())

	return models.CompiledArtifact{
		Kind:           models.ArtifactExtensions,
		Context:        ContextInternal,
		Name:           queueRef(queue.ID),
		MatchCondition: "^" + queue.Extension + "$",
		Actions:        actions,
		Fallback:       fallback,
		Enabled:        queue.Enabled,
	}, nil
}

func compileInboundRoute(policy *models.PolicySet, route models.InboundRoute) (models.CompiledArtifact, error) {
	if err := route.Destination.Validate(); err != nil {
		return models.CompiledArtifact{}, err
	}

	primary, err := actionFor(route.Destination)
	if err != nil {
		return models.CompiledArtifact{}, err
	}

	actions := []models.ArtifactAction{}
	if route.RecordCalls {
		actions = append(actions, recordAction(policy.Tenant.ID))
	}
	if route.TimeConditionID != "" {
		actions = append(actions, models.ArtifactAction{
			App:  "time_condition",
			Data: timeConditionRef(route.TimeConditionID),
		})
	}
	actions = append(actions, primary, hangupAction())

	var fallback *models.ArtifactAction
	if route.FailoverEnabled {
		fallback, err = fallbackFor(route.FailoverDestination)
		if err != nil {
			return models.CompiledArtifact{}, err
		}
	}

	return models.CompiledArtifact{
		Kind:           models.ArtifactDialplan,
		Context:        ContextPublic,
		Name:           "did_" + route.DIDNumber,
		MatchCondition: "^\\+?" + escapePlus(route.DIDNumber) + "$",
		Actions:        actions,
		Fallback:       fallback,
		Enabled:        route.Enabled,
	}, nil
}

func compileOutboundRoute(policy *models.PolicySet, route models.OutboundRoute) (models.CompiledArtifact, error) {
	trunk, ok := policy.Trunk(route.TrunkID)
	if !ok {
		return models.CompiledArtifact{}, errors.ValidationError("outbound route references unknown trunk").
			WithContext("route", route.Name).
			WithContext("trunk_id", route.TrunkID)
	}

	// ${destination_number:N} strips N leading digits switch-side,
	// mirroring the resolver's transform without inlining numbers.
	target := "${destination_number}"
	if route.StripDigits > 0 {
		target = fmt.Sprintf("${destination_number:%d}", route.StripDigits)
	}
	target = route.AddDigits + route.Prefix + target

	actions := []models.ArtifactAction{
		{App: "set", Data: "hangup_after_bridge=true"},
		{App: "bridge", Data: "sofia/gateway/" + gatewayRef(trunk.ID) + "/" + target},
	}

	var fallback *models.ArtifactAction
	if route.FailoverTrunkID != "" {
		if _, ok := policy.Trunk(route.FailoverTrunkID); !ok {
			return models.CompiledArtifact{}, errors.ValidationError("outbound route references unknown failover trunk").
				WithContext("route", route.Name).
				WithContext("trunk_id", route.FailoverTrunkID)
		}
		fallback = &models.ArtifactAction{
			App:  "bridge",
			Data: "sofia/gateway/" + gatewayRef(route.FailoverTrunkID) + "/" + target,
		}
	}
	actions = append(actions, hangupAction())

	return models.CompiledArtifact{
		Kind:           models.ArtifactDialplan,
		Context:        ContextInternal,
		Name:           "out_" + route.ID,
		MatchCondition: route.DialPattern,
		Actions:        actions,
		Fallback:       fallback,
		Enabled:        route.Enabled,
	}, nil
}

func compileRule(rule models.DialplanRule) models.CompiledArtifact {
	actions := make([]models.ArtifactAction, 0, len(rule.Actions))
	for _, a := range rule.Actions {
		actions = append(actions, models.ArtifactAction{App: a.App, Data: a.Data})
	}

	return models.CompiledArtifact{
		Kind:           models.ArtifactDialplan,
		Context:        rule.Context,
		Name:           "rule_" + rule.Name,
		MatchCondition: rule.MatchPattern,
		Actions:        actions,
		Enabled:        rule.Enabled,
	}
}

func compileIVRMenu(menu models.IVRMenu) (models.CompiledArtifact, error) {
	actions := []models.ArtifactAction{
		{App: "greet-long", Data: menu.GreetLong},
	}
	if menu.GreetShort != "" {
		actions = append(actions, models.ArtifactAction{App: "greet-short", Data: menu.GreetShort})
	}
	actions = append(actions,
		models.ArtifactAction{App: "timeout", Data: fmt.Sprintf("%d", menu.Timeout)},
		models.ArtifactAction{App: "max-failures", Data: fmt.Sprintf("%d", menu.MaxFailures)},
	)

	options := append([]models.IVROption(nil), menu.Options...)
	sort.SliceStable(options, func(i, j int) bool { return options[i].Digit < options[j].Digit })
	for _, opt := range options {
		entry, err := actionFor(opt.Destination)
		if err != nil {
			return models.CompiledArtifact{}, err
		}
		actions = append(actions, models.ArtifactAction{
			App:  "entry:" + opt.Digit,
			Data: entry.App + " " + entry.Data,
		})
	}

	return models.CompiledArtifact{
		Kind:    models.ArtifactIVR,
		Context: ContextInternal,
		Name:    ivrRef(menu.ID),
		Actions: actions,
		Enabled: menu.Enabled,
	}, nil
}

func compileConference(room models.ConferenceRoom) models.CompiledArtifact {
	target := conferenceRef(room.Extension)
	if room.PIN != "" {
		target += "+" + room.PIN
	}

	actions := []models.ArtifactAction{
		{App: "answer"},
		{App: "conference", Data: target},
		hangupAction(),
	}

	return models.CompiledArtifact{
		Kind:           models.ArtifactConference,
		Context:        ContextInternal,
		Name:           "conf_" + room.Extension,
		MatchCondition: "^" + room.Extension + "$",
		Actions:        actions,
		Enabled:        room.Enabled,
	}
}

// actionFor maps a destination to its primary artifact action. Every
// destination kind is handled; an unknown kind is a validation bug
// upstream and fails compilation.
func actionFor(dest models.Destination) (models.ArtifactAction, error) {
	switch dest.Type {
	case models.DestExtension:
		return models.ArtifactAction{App: "bridge", Data: "user/" + dest.Value}, nil
	case models.DestRingGroup:
		return models.ArtifactAction{App: "transfer", Data: ringGroupRef(dest.Value)}, nil
	case models.DestQueue:
		return models.ArtifactAction{App: "callcenter", Data: queueRef(dest.Value)}, nil
	case models.DestVoicemail:
		return models.ArtifactAction{App: "voicemail", Data: dest.Value}, nil
	case models.DestIVR:
		return models.ArtifactAction{App: "ivr", Data: ivrRef(dest.Value)}, nil
	case models.DestConference:
		return models.ArtifactAction{App: "conference", Data: conferenceRef(dest.Value)}, nil
	case models.DestExternal:
		return models.ArtifactAction{App: "bridge", Data: "loopback/" + dest.Value}, nil
	default:
		return models.ArtifactAction{}, errors.ValidationError(fmt.Sprintf("unknown destination type %q", dest.Type))
	}
}

func fallbackFor(dest models.Destination) (*models.ArtifactAction, error) {
	if dest.IsZero() {
		return nil, nil
	}
	action, err := actionFor(dest)
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// Stable reference keys shared by every artifact that points at an
// entity rather than inlining it.
func gatewayRef(trunkID string) string    { return "gw_" + trunkID }
func ringGroupRef(groupID string) string  { return "ring_group_" + groupID }
func queueRef(queueID string) string      { return "queue_" + queueID }
func ivrRef(menuID string) string         { return "ivr_" + menuID }
func conferenceRef(room string) string    { return "conf_" + room }
func timeConditionRef(tcID string) string { return "tc_" + tcID }

func recordAction(tenantID string) models.ArtifactAction {
	return models.ArtifactAction{
		App:  "record_session",
		Data: "recordings/" + tenantID + "/${uuid}.wav",
	}
}

func hangupAction() models.ArtifactAction {
	return models.ArtifactAction{App: "hangup"}
}

func escapePlus(number string) string {
	if len(number) > 0 && number[0] == '+' {
		return number[1:]
	}
	return number
}

func sortedTrunks(trunks []models.Trunk) []models.Trunk {
	out := append([]models.Trunk(nil), trunks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedOutbound(routes []models.OutboundRoute) []models.OutboundRoute {
	out := append([]models.OutboundRoute(nil), routes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func sortedRules(rules []models.DialplanRule) []models.DialplanRule {
	out := append([]models.DialplanRule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
