package predicate

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOperator = errors.New("unknown operator")
	ErrNotComparable   = errors.New("values are not comparable")
	ErrCoercion        = errors.New("cannot coerce literal")
)

// CoercionError is returned when a predicate literal cannot be converted to
// the type of the value it is compared against. A predicate whose literal
// cannot be coerced is unsatisfiable for that value.
type CoercionError struct {
	Value   any
	Literal string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%v: %q to %T", ErrCoercion, e.Literal, e.Value)
}

func (e *CoercionError) Unwrap() error {
	return ErrCoercion
}

// InvalidComparisonError is returned when an ordering operator is applied to
// values that have no ordering, e.g. booleans or mappings.
type InvalidComparisonError struct {
	Value any
	Op    Operator
}

func (e *InvalidComparisonError) Error() string {
	return fmt.Sprintf("%v: %T %s", ErrNotComparable, e.Value, e.Op)
}

func (e *InvalidComparisonError) Unwrap() error {
	return ErrNotComparable
}
