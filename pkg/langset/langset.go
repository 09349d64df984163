// Package langset matches the language composition of a project against
// configured language constraints.
//
// Four modes relate the set of configured languages (C) to the set of
// languages used by a project (P). Every language considered by a mode must
// also satisfy its configured predicate:
//
//   - [ModeAtLeast]: C ⊆ P.
//   - [ModeAtMost]: P ⊆ C, and P is not empty unless C is.
//   - [ModeAny]: C ∩ P is not empty.
//   - [ModeExplicit]: C = P.
//
// An empty set of constraints is satisfied in every mode.
package langset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/macropower/repofilter/pkg/predicate"
)

// Mode is a set relationship between configured and used languages.
type Mode string

const (
	ModeAtLeast  Mode = "atleast"
	ModeAtMost   Mode = "atmost"
	ModeAny      Mode = "any"
	ModeExplicit Mode = "explicit"

	keySuffix = "_languages"
)

var (
	ErrUnknownMode = errors.New("unknown language mode")

	// AllModes contains every [Mode], in rule document order.
	AllModes = []Mode{ModeAtLeast, ModeAtMost, ModeAny, ModeExplicit}
)

// Key returns the reserved rule document key of the mode, e.g.
// "atleast_languages".
func (m Mode) Key() string {
	return string(m) + keySuffix
}

// ParseKey returns the [Mode] for a reserved rule document key.
func ParseKey(key string) (Mode, bool) {
	name, ok := strings.CutSuffix(key, keySuffix)
	if !ok {
		return "", false
	}

	for _, m := range AllModes {
		if string(m) == name {
			return m, true
		}
	}

	return "", false
}

// Rules maps a language name to the predicate its percentage must satisfy.
type Rules map[string]*predicate.Predicate

// Match reports whether languages satisfies rules in the given mode.
// A predicate that fails to evaluate counts as not satisfied.
func Match(mode Mode, languages map[string]float64, rules Rules) (bool, error) {
	switch mode {
	case ModeAtLeast:
		return atLeast(languages, rules), nil
	case ModeAtMost:
		return atMost(languages, rules), nil
	case ModeAny:
		return anyOf(languages, rules), nil
	case ModeExplicit:
		return explicit(languages, rules), nil
	}

	return false, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// satisfied reports whether lang is used and its percentage satisfies p.
func satisfied(languages map[string]float64, lang string, p *predicate.Predicate) bool {
	pct, ok := languages[lang]
	if !ok {
		return false
	}

	return p.Matches(pct)
}

func atLeast(languages map[string]float64, rules Rules) bool {
	for lang, p := range rules {
		if !satisfied(languages, lang, p) {
			return false
		}
	}

	return true
}

// atMost requires every used language to be configured. A project without
// languages only matches an empty rule set.
func atMost(languages map[string]float64, rules Rules) bool {
	if len(languages) == 0 {
		return len(rules) == 0
	}

	for lang := range languages {
		p, ok := rules[lang]
		if !ok || !satisfied(languages, lang, p) {
			return false
		}
	}

	return true
}

func anyOf(languages map[string]float64, rules Rules) bool {
	if len(rules) == 0 {
		return true
	}

	for lang, p := range rules {
		if satisfied(languages, lang, p) {
			return true
		}
	}

	return false
}

func explicit(languages map[string]float64, rules Rules) bool {
	if len(languages) != len(rules) {
		return false
	}

	// Equal sizes, so C ⊆ P implies C = P.
	return atLeast(languages, rules)
}
