// Package predicate implements encoded comparison predicates of the form
// "<operator>//<value>", e.g. "<=//100.0" or "==//true".
//
// A string without the "//" separator is a bare equality, so
// "example filter project" is the same as "==//example filter project".
//
// The literal is coerced to the type of the value it is compared against
// when the predicate is evaluated. Typed candidates of the literal are
// computed once by [Parse].
package predicate

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Separator splits the operator from the literal.
const Separator = "//"

// Predicate is a parsed encoded predicate.
type Predicate struct {
	boolVal  ref.Val // Set when the literal is a boolean token.
	intVal   ref.Val // Set when the literal is an integer.
	floatVal ref.Val // Set when the literal is a number.

	// Literal is the comparison value, as written.
	Literal string
	// Op is the comparison operator.
	Op Operator
}

// Parse parses an encoded predicate.
func Parse(encoded string) (*Predicate, error) {
	p := &Predicate{Op: OpEqual, Literal: encoded}

	token, literal, found := strings.Cut(encoded, Separator)
	if found {
		op, err := ParseOperator(token)
		if err != nil {
			return nil, err
		}

		p.Op = op
		p.Literal = literal
	}

	p.parseLiteral()

	return p, nil
}

// MustParse parses an encoded predicate and panics if there's an error.
func MustParse(encoded string) *Predicate {
	p, err := Parse(encoded)
	if err != nil {
		panic(err)
	}

	return p
}

func (p *Predicate) parseLiteral() {
	lit := strings.TrimSpace(p.Literal)

	switch {
	case strings.EqualFold(lit, "true"):
		p.boolVal = types.True
	case strings.EqualFold(lit, "false"):
		p.boolVal = types.False
	}

	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		p.intVal = types.Int(i)
	}

	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		p.floatVal = types.Double(f)
	}
}

// Evaluate compares actual against the predicate.
//
// A nil actual value (e.g. a missing attribute) never satisfies a predicate.
// A [*CoercionError] is returned when the literal cannot be converted to the
// type of actual, and an [*InvalidComparisonError] when an ordering operator
// is used on values without an ordering. Either error means the predicate is
// not satisfied.
func (p *Predicate) Evaluate(actual any) (bool, error) {
	if actual == nil {
		return false, nil
	}

	lhs, rhs, err := p.coerce(actual)
	if err != nil {
		return false, err
	}

	return p.Op.apply(lhs, rhs)
}

// Matches is like [Predicate.Evaluate], but treats errors as a non-match.
func (p *Predicate) Matches(actual any) bool {
	ok, err := p.Evaluate(actual)

	return err == nil && ok
}

// coerce converts actual and the literal into CEL values of the same type.
//
//nolint:ireturn // CEL values are interfaces.
func (p *Predicate) coerce(actual any) (ref.Val, ref.Val, error) {
	switch v := actual.(type) {
	case bool:
		if p.boolVal != nil {
			return types.Bool(v), p.boolVal, nil
		}

	case string:
		return types.String(v), types.String(p.Literal), nil

	case float32:
		if p.floatVal != nil {
			return types.Double(float64(v)), p.floatVal, nil
		}

	case float64:
		if p.floatVal != nil {
			return types.Double(v), p.floatVal, nil
		}

	default:
		i, isInt, isNum := toInt64(actual)
		switch {
		case isInt && p.intVal != nil:
			return types.Int(i), p.intVal, nil
		case isNum && p.floatVal != nil:
			return types.Double(toFloat64(actual)), p.floatVal, nil
		}
	}

	return nil, nil, &CoercionError{Value: actual, Literal: p.Literal}
}

// String returns the canonical encoded form of the predicate.
func (p *Predicate) String() string {
	return p.Op.String() + Separator + p.Literal
}

// toInt64 reports whether v is an integer, and whether it fits into int64.
// isNum is true for every integer kind.
func toInt64(v any) (i int64, isInt, isNum bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true, true
	case int8:
		return int64(n), true, true
	case int16:
		return int64(n), true, true
	case int32:
		return int64(n), true, true
	case int64:
		return n, true, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false, true
		}

		return int64(n), true, true
	case uint8:
		return int64(n), true, true
	case uint16:
		return int64(n), true, true
	case uint32:
		return int64(n), true, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false, true
		}

		return int64(n), true, true
	}

	return 0, false, false
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	}

	i, _, _ := toInt64(v)

	return float64(i)
}

// ToFloat64 converts any Go number into a float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}

	if _, _, isNum := toInt64(v); isNum {
		return toFloat64(v), true
	}

	return 0, false
}
