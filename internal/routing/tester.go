package routing

import (
	"call-router/internal/common/errors"
	"call-router/internal/models"
	"call-router/internal/pattern"
)

// RuleTestResult reports a dry-run of a dialplan rule against a
// number: whether it matched, the capture groups, and the actions
// that would run. Testing never mutates any state.
type RuleTestResult struct {
	Matched bool                `json:"matched"`
	Groups  []string            `json:"groups,omitempty"`
	RuleID  string              `json:"rule_id,omitempty"`
	Actions []models.RuleAction `json:"actions,omitempty"`
}

// TestPattern compiles a pattern and evaluates it against a number.
// Exposed for validation tooling; invalid patterns fail with an
// invalid_pattern error rather than matching nothing.
func (r *Resolver) TestPattern(source, number string) (pattern.MatchResult, error) {
	compiled, err := r.patterns.Get(source)
	if err != nil {
		return pattern.MatchResult{}, err
	}
	return compiled.Match(pattern.NormalizeNumber(number)), nil
}

// TestRule dry-runs one dialplan rule against a number. Disabled
// rules still test; callers decide whether that matters.
func (r *Resolver) TestRule(rule *models.DialplanRule, number string) (*RuleTestResult, error) {
	if rule == nil {
		return nil, errors.ValidationError("rule is required")
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	result, err := r.TestPattern(rule.MatchPattern, number)
	if err != nil {
		return nil, err
	}
	if !result.Matched {
		return &RuleTestResult{Matched: false, RuleID: rule.ID}, nil
	}

	return &RuleTestResult{
		Matched: true,
		Groups:  result.Groups,
		RuleID:  rule.ID,
		Actions: rule.Actions,
	}, nil
}
