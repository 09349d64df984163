package rules

import (
	"fmt"
	"maps"
	"slices"

	"github.com/macropower/repofilter/pkg/expr"
	"github.com/macropower/repofilter/pkg/langset"
	"github.com/macropower/repofilter/pkg/predicate"
)

// RuleSet is a loaded rule document. It is immutable once loaded, and safe
// for concurrent use.
type RuleSet struct {
	// AttributeRules maps attribute names to encoded predicates.
	AttributeRules map[string]string
	// LanguageRules maps each language mode to language names and encoded
	// predicates.
	LanguageRules map[langset.Mode]map[string]string
	// Attributes lists the attributes kept in the output; empty keeps the
	// full record.
	Attributes []string
	// Expressions lists the CEL match expressions.
	Expressions []string

	rules []Rule
}

// Empty returns a [RuleSet] without any rules, which matches every project.
func Empty() *RuleSet {
	return &RuleSet{
		AttributeRules: map[string]string{},
		LanguageRules:  map[langset.Mode]map[string]string{},
		Attributes:     []string{},
		Expressions:    []string{},
	}
}

// Rules returns the compiled rules: attribute rules sorted by name, then
// language rules in [langset.AllModes] order, then match expressions.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// IsEmpty reports whether the rule set neither filters nor projects.
func (rs *RuleSet) IsEmpty() bool {
	return len(rs.rules) == 0 && len(rs.Attributes) == 0
}

// Languages returns the configured language rules for a mode.
func (rs *RuleSet) Languages(mode langset.Mode) map[string]string {
	return rs.LanguageRules[mode]
}

// Document returns the rule document describing the rule set.
func (rs *RuleSet) Document() *Document {
	doc := &Document{
		Filters:    []map[string]any{},
		Attributes: slices.Clone(rs.Attributes),
		Match:      slices.Clone(rs.Expressions),
	}

	for _, name := range slices.Sorted(maps.Keys(rs.AttributeRules)) {
		doc.Filters = append(doc.Filters, map[string]any{name: rs.AttributeRules[name]})
	}

	for _, mode := range langset.AllModes {
		langs := rs.LanguageRules[mode]
		if len(langs) == 0 {
			continue
		}

		group := make([]any, 0, len(langs))
		for _, name := range slices.Sorted(maps.Keys(langs)) {
			group = append(group, map[string]any{name: langs[name]})
		}

		doc.Filters = append(doc.Filters, map[string]any{mode.Key(): group})
	}

	return doc
}

// MarshalYAML encodes the rule set as a rule document.
func (rs *RuleSet) MarshalYAML() (any, error) {
	return rs.Document(), nil
}

// compile builds the rules of the rule set. Errors are returned as
// [*StructureError].
func (rs *RuleSet) compile(env *expr.Environment) error {
	rs.rules = []Rule{}

	for _, name := range slices.Sorted(maps.Keys(rs.AttributeRules)) {
		r, err := NewAttributeRule(name, rs.AttributeRules[name])
		if err != nil {
			return structureErr(err, "filters")
		}

		rs.rules = append(rs.rules, r)
	}

	for _, mode := range langset.AllModes {
		langs, ok := rs.LanguageRules[mode]
		if !ok || len(langs) == 0 {
			continue
		}

		r, err := NewLanguageSetRule(mode, langs)
		if err != nil {
			return structureErr(err, "filters")
		}

		rs.rules = append(rs.rules, r)
	}

	for i, expression := range rs.Expressions {
		r, err := NewExpressionRule(env, expression)
		if err != nil {
			return structureErr(err, "match", i)
		}

		rs.rules = append(rs.rules, r)
	}

	return nil
}

// Load builds a [RuleSet] from a decoded rule document, e.g. the result of
// decoding YAML into an `any`. A nil document yields an empty rule set.
//
// Structural defects are returned as [*StructureError].
func Load(doc any, opts ...Option) (*RuleSet, error) {
	o := newOptions(opts...)

	rs := Empty()
	if doc == nil {
		return rs, nil
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return nil, structureErr(ErrInvalidDocument)
	}

	err := rs.loadFilters(root["filters"])
	if err != nil {
		return nil, err
	}

	rs.Attributes, err = loadStrings(root["attributes"], "attributes")
	if err != nil {
		return nil, err
	}

	rs.Expressions, err = loadStrings(root["match"], "match")
	if err != nil {
		return nil, err
	}

	env, err := o.environment()
	if err != nil {
		return nil, err
	}

	err = rs.compile(env)
	if err != nil {
		return nil, err
	}

	return rs, nil
}

// loadFilters flattens the `filters` list into attribute and language
// rules. Later entries overwrite earlier entries with the same key.
func (rs *RuleSet) loadFilters(raw any) error {
	if raw == nil {
		return nil
	}

	entries, ok := raw.([]any)
	if !ok {
		return structureErr(ErrInvalidFilters, "filters")
	}

	for i, entry := range entries {
		key, value, err := singleKey(entry)
		if err != nil {
			return structureErr(fmt.Errorf("%w: %w", ErrInvalidFilter, err), "filters", i)
		}

		mode, isGroup := langset.ParseKey(key)
		if !isGroup {
			encoded, err := parsePredicate(value)
			if err != nil {
				return structureErr(err, "filters", i, key)
			}

			rs.AttributeRules[key] = encoded

			continue
		}

		group, ok := value.([]any)
		if !ok {
			return structureErr(ErrInvalidLanguageGroup, "filters", i, key)
		}

		langs, ok := rs.LanguageRules[mode]
		if !ok {
			langs = map[string]string{}
			rs.LanguageRules[mode] = langs
		}

		for j, langEntry := range group {
			name, langValue, err := singleKey(langEntry)
			if err != nil {
				return structureErr(fmt.Errorf("%w: %w", ErrInvalidLanguageGroup, err), "filters", i, key, j)
			}

			encoded, err := parsePredicate(langValue)
			if err != nil {
				return structureErr(err, "filters", i, key, j, name)
			}

			langs[name] = encoded
		}
	}

	return nil
}

func singleKey(entry any) (string, any, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("got %T", entry)
	}

	if len(m) != 1 {
		return "", nil, fmt.Errorf("got %d keys", len(m))
	}

	for k, v := range m {
		return k, v, nil
	}

	panic("unreachable")
}

// parsePredicate returns the encoded predicate for a scalar value, and
// checks that it parses. Numbers and booleans are rendered as bare literals.
func parsePredicate(value any) (string, error) {
	var encoded string

	switch v := value.(type) {
	case string:
		encoded = v
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		encoded = fmt.Sprint(v)
	default:
		return "", fmt.Errorf("%w, got %T", ErrInvalidPredicate, value)
	}

	if _, err := predicate.Parse(encoded); err != nil {
		return "", err //nolint:wrapcheck // Wrapped by the caller.
	}

	return encoded, nil
}

func loadStrings(raw any, key string) ([]string, error) {
	out := []string{}
	if raw == nil {
		return out, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, structureErr(fmt.Errorf("%s %w", key, ErrInvalidList), key)
	}

	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, structureErr(fmt.Errorf("%s %w, got %T", key, ErrInvalidList, item), key, i)
		}

		out = append(out, s)
	}

	return out, nil
}
