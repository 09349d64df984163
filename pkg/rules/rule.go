package rules

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/macropower/repofilter/pkg/corpus"
	"github.com/macropower/repofilter/pkg/expr"
	"github.com/macropower/repofilter/pkg/langset"
	"github.com/macropower/repofilter/pkg/predicate"
)

// Rule decides whether a single project matches.
//
// An error means the rule could not be evaluated for the project, which
// callers treat as a non-match.
type Rule interface {
	Match(p corpus.Project) (bool, error)
	String() string
}

// AttributeRule matches projects whose attribute satisfies a predicate.
// A missing attribute never matches.
type AttributeRule struct {
	Predicate *predicate.Predicate
	Name      string
}

// NewAttributeRule creates a new [AttributeRule] from an encoded predicate.
func NewAttributeRule(name, encoded string) (*AttributeRule, error) {
	p, err := predicate.Parse(encoded)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}

	return &AttributeRule{Name: name, Predicate: p}, nil
}

func (r *AttributeRule) Match(p corpus.Project) (bool, error) {
	v, ok := p.Get(r.Name)
	if !ok {
		return false, nil
	}

	match, err := r.Predicate.Evaluate(v)
	if err != nil {
		return false, fmt.Errorf("attribute %q: %w", r.Name, err)
	}

	return match, nil
}

func (r *AttributeRule) String() string {
	return fmt.Sprintf("%s: %s", r.Name, r.Predicate)
}

// LanguageSetRule matches the language composition of projects.
type LanguageSetRule struct {
	Languages langset.Rules
	Mode      langset.Mode
}

// NewLanguageSetRule creates a new [LanguageSetRule] from a mapping of
// language names to encoded predicates.
func NewLanguageSetRule(mode langset.Mode, languages map[string]string) (*LanguageSetRule, error) {
	r := &LanguageSetRule{
		Mode:      mode,
		Languages: make(langset.Rules, len(languages)),
	}

	for name, encoded := range languages {
		p, err := predicate.Parse(encoded)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", mode.Key(), name, err)
		}

		r.Languages[name] = p
	}

	return r, nil
}

func (r *LanguageSetRule) Match(p corpus.Project) (bool, error) {
	match, err := langset.Match(r.Mode, p.Languages(), r.Languages)
	if err != nil {
		return false, fmt.Errorf("%s: %w", r.Mode.Key(), err)
	}

	return match, nil
}

func (r *LanguageSetRule) String() string {
	return fmt.Sprintf("%s: %d languages", r.Mode.Key(), len(r.Languages))
}

// ExpressionRule uses a CEL expression to determine if a project matches.
//
// CEL expressions have access to the `project` variable (map<string, dyn>)
// and must return a boolean value:
//   - project.archived == false
//   - project.name.startsWith("infra-")
//   - "Go" in languageNames(project)
//   - languagePercent(project, "Python") >= 50.0
//
// Expressions that fail to evaluate, e.g. because they reference a missing
// attribute, do not match. Use `has(project.attr)` to guard optional
// attributes.
type ExpressionRule struct {
	program    cel.Program // Compiled CEL program.
	Expression string
}

// NewExpressionRule compiles expression in the given environment.
func NewExpressionRule(env *expr.Environment, expression string) (*ExpressionRule, error) {
	program, err := env.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", expression, err)
	}

	return &ExpressionRule{Expression: expression, program: program}, nil
}

// MustNewExpressionRule creates a new [ExpressionRule] and panics if there's
// an error.
func MustNewExpressionRule(env *expr.Environment, expression string) *ExpressionRule {
	r, err := NewExpressionRule(env, expression)
	if err != nil {
		panic(err)
	}

	return r
}

func (r *ExpressionRule) Match(p corpus.Project) (bool, error) {
	if r.program == nil {
		panic(errors.New("rule missing a compiled expression"))
	}

	match, err := expr.EvalProject(r.program, p)
	if err != nil {
		return false, fmt.Errorf("match %q: %w", r.Expression, err)
	}

	return match, nil
}

func (r *ExpressionRule) String() string {
	return "match: " + r.Expression
}
