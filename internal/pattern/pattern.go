// Package pattern compiles and evaluates regular-expression dial
// patterns against phone numbers. Compilation failures surface before
// the owning rule is persisted, never at match time. A compiled
// pattern is immutable and safe for concurrent reuse.
package pattern

import (
	"regexp"
	"strings"
	"sync"

	"call-router/internal/common/errors"
)

// Compiled is a validated, anchored dial pattern ready for matching.
type Compiled struct {
	source string
	re     *regexp.Regexp
}

// MatchResult reports whether a number matched and the values of the
// pattern's capture groups, in order.
type MatchResult struct {
	Matched bool     `json:"matched"`
	Groups  []string `json:"groups,omitempty"`
}

// Compile validates a dial pattern and returns its compiled form.
// Patterns are anchored to the full number: a pattern without explicit
// anchors matches the whole string, not a substring.
func Compile(source string) (*Compiled, error) {
	if source == "" {
		return nil, errors.InvalidPatternError(source, nil)
	}

	re, err := regexp.Compile(anchor(source))
	if err != nil {
		return nil, errors.InvalidPatternError(source, err)
	}

	return &Compiled{source: source, re: re}, nil
}

// MustCompile is Compile for patterns known valid at build time.
// It panics on error and exists for tests and fixed internal patterns.
func MustCompile(source string) *Compiled {
	c, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return c
}

// anchor wraps the pattern in a non-capturing group pinned to both
// ends, preserving the source's own anchors and group numbering.
func anchor(source string) string {
	trimmed := source
	if strings.HasPrefix(trimmed, "^") {
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "$") && !strings.HasSuffix(trimmed, `\$`) {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return "^(?:" + trimmed + ")$"
}

// Match evaluates the pattern against a phone number.
func (c *Compiled) Match(number string) MatchResult {
	sub := c.re.FindStringSubmatch(number)
	if sub == nil {
		return MatchResult{Matched: false}
	}
	return MatchResult{Matched: true, Groups: sub[1:]}
}

// Source returns the original pattern text.
func (c *Compiled) Source() string {
	return c.source
}

// Validate reports whether a pattern would compile, without keeping
// the compiled form. Used by validation tooling before persistence.
func Validate(source string) error {
	_, err := Compile(source)
	return err
}

// NormalizeNumber strips formatting from a dialed or caller number:
// spaces, dashes, dots and parentheses are removed, a single leading
// "+" is preserved, and everything else must be a digit to survive.
func NormalizeNumber(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Cache is a concurrency-safe store of compiled patterns keyed by
// source text. Matching code paths share one cache so hot patterns
// compile once.
type Cache struct {
	mu       sync.RWMutex
	compiled map[string]*Compiled
}

// NewCache creates an empty pattern cache.
func NewCache() *Cache {
	return &Cache{compiled: make(map[string]*Compiled)}
}

// Get returns the compiled form of a pattern, compiling and caching
// it on first use. Invalid patterns are not cached.
func (c *Cache) Get(source string) (*Compiled, error) {
	c.mu.RLock()
	if compiled, ok := c.compiled[source]; ok {
		c.mu.RUnlock()
		return compiled, nil
	}
	c.mu.RUnlock()

	compiled, err := Compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[source] = compiled
	c.mu.Unlock()
	return compiled, nil
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.compiled)
}
