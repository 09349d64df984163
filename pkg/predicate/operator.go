package predicate

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// Operator is a comparison operator of an encoded predicate.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpLessEqual
	OpGreaterEqual
	OpLess
	OpGreater
)

var operatorTokens = map[string]Operator{
	"==": OpEqual,
	"!=": OpNotEqual,
	"<=": OpLessEqual,
	">=": OpGreaterEqual,
	"<":  OpLess,
	">":  OpGreater,
}

// AllOperators contains the token of every supported operator.
var AllOperators = []string{"==", "!=", "<=", ">=", "<", ">"}

// ParseOperator returns the [Operator] for the given token.
func ParseOperator(token string) (Operator, error) {
	op, ok := operatorTokens[strings.TrimSpace(token)]
	if !ok {
		return 0, fmt.Errorf("%w: %q, must be one of %v", ErrUnknownOperator, token, AllOperators)
	}

	return op, nil
}

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLessEqual:
		return "<="
	case OpGreaterEqual:
		return ">="
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	}

	return fmt.Sprintf("Operator(%d)", int(o))
}

// IsOrdering reports whether the operator needs an ordering of its operands.
func (o Operator) IsOrdering() bool {
	return o != OpEqual && o != OpNotEqual
}

// apply compares two values of the same CEL type.
func (o Operator) apply(lhs, rhs ref.Val) (bool, error) {
	if !o.IsOrdering() {
		equal := lhs.Equal(rhs) == types.True

		return equal == (o == OpEqual), nil
	}

	// Booleans implement [traits.Comparer] in CEL, but ordering them has no
	// meaning for project attributes.
	if _, ok := lhs.(types.Bool); ok {
		return false, &InvalidComparisonError{Op: o, Value: lhs.Value()}
	}

	cmp, ok := lhs.(traits.Comparer)
	if !ok {
		return false, &InvalidComparisonError{Op: o, Value: lhs.Value()}
	}

	res, ok := cmp.Compare(rhs).(types.Int)
	if !ok {
		return false, &InvalidComparisonError{Op: o, Value: lhs.Value()}
	}

	switch o {
	case OpLess:
		return res < 0, nil
	case OpLessEqual:
		return res <= 0, nil
	case OpGreater:
		return res > 0, nil
	case OpGreaterEqual:
		return res >= 0, nil
	}

	return false, &InvalidComparisonError{Op: o, Value: lhs.Value()}
}
