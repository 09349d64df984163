package rules

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

var (
	ErrInvalidDocument      = errors.New("rule document must be a mapping")
	ErrInvalidFilters       = errors.New("filters must be a list")
	ErrInvalidFilter        = errors.New("filter must be a mapping with exactly one key")
	ErrInvalidLanguageGroup = errors.New("language group must be a list of mappings with exactly one key")
	ErrInvalidPredicate     = errors.New("predicate must be a scalar")
	ErrInvalidList          = errors.New("must be a list of strings")
)

// StructureError is returned for rule documents that are well-formed YAML
// but do not describe a valid set of rules.
type StructureError struct {
	Path *yaml.Path // Location of the defect.
	Err  error
}

func (e *StructureError) Error() string {
	if e.Path == nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Path.String(), e.Err)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}

func structureErr(err error, segments ...any) *StructureError {
	return &StructureError{Path: buildPath(segments...), Err: err}
}

// buildPath builds a YAML path from string keys and int indexes.
func buildPath(segments ...any) *yaml.Path {
	pb := (&yaml.PathBuilder{}).Root()

	for _, s := range segments {
		switch v := s.(type) {
		case string:
			pb = pb.Child(v)
		case int:
			pb = pb.Index(uint(v)) //nolint:gosec // G115: Indexes are never negative.
		}
	}

	return pb.Build()
}
