package expr

import (
	"math"
	"reflect"
	"slices"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

// languagesKey is the project attribute holding the language composition.
const languagesKey = "languages"

var projectType = cel.MapType(cel.StringType, cel.DynType)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// Percentages are doubles, but JSON integers are ints.
		cel.CrossTypeNumericComparisons(true),

		cel.Variable(ProjectVar, projectType),

		// `languageNames` returns the sorted language names of a project.
		// Example: "Go" in languageNames(project).
		cel.Function("languageNames",
			cel.Overload("language_names_map", []*cel.Type{projectType}, cel.ListType(cel.StringType),
				cel.UnaryBinding(func(project ref.Val) ref.Val {
					langs, ok := projectLanguages(project)
					if !ok {
						return types.NewStringList(types.DefaultTypeAdapter, []string{})
					}

					names := []string{}

					it := langs.Iterator()
					for it.HasNext() == types.True {
						if name, ok := it.Next().(types.String); ok {
							names = append(names, string(name))
						}
					}

					slices.Sort(names)

					return types.NewStringList(types.DefaultTypeAdapter, names)
				}),
			),
		),

		// `languagePercent` returns the percentage of a language, or 0.0 when
		// the project does not use it.
		// Example: languagePercent(project, "Python") >= 50.0.
		cel.Function("languagePercent",
			cel.Overload("language_percent_map_string", []*cel.Type{projectType, cel.StringType}, cel.DoubleType,
				cel.BinaryBinding(func(project, name ref.Val) ref.Val {
					nameStr, ok := name.(types.String)
					if !ok {
						return types.NewErr("languagePercent: invalid language name")
					}

					langs, ok := projectLanguages(project)
					if !ok {
						return types.Double(0)
					}

					pct, found := langs.Find(nameStr)
					if !found {
						return types.Double(0)
					}

					switch v := pct.(type) {
					case types.Double:
						return v
					case types.Int:
						return types.Double(float64(v))
					case types.Uint:
						return types.Double(float64(v))
					}

					return types.NewErr("languagePercent: %s is not a number", string(nameStr))
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// projectLanguages returns the `languages` mapping of a project value.
func projectLanguages(project ref.Val) (traits.Mapper, bool) {
	m, ok := project.(traits.Mapper)
	if !ok {
		return nil, false
	}

	raw, found := m.Find(types.String(languagesKey))
	if !found {
		return nil, false
	}

	langs, ok := raw.(traits.Mapper)

	return langs, ok
}

// ConvertToCELValue converts a Go value to a CEL value.
// Handles the types produced by the YAML and JSON decoders, and returns null
// for unsupported types. Integers are converted to CEL ints where they fit.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case ref.Val:
		return v

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int8:
		return types.Int(int64(v))

	case int16:
		return types.Int(int64(v))

	case int32:
		return types.Int(int64(v))

	case int64:
		return types.Int(v)

	case uint:
		if uint64(v) > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case uint8:
		return types.Int(int64(v))

	case uint16:
		return types.Int(int64(v))

	case uint32:
		return types.Int(int64(v))

	case uint64:
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float32:
		return types.Double(float64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewRefValList(types.DefaultTypeAdapter, celValues)

	case map[any]any:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[ConvertToCELValue(key)] = ConvertToCELValue(val)
		}

		return types.NewRefValMap(types.DefaultTypeAdapter, celMap)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewRefValMap(types.DefaultTypeAdapter, celMap)

	case map[string]float64:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[types.String(key)] = types.Double(val)
		}

		return types.NewRefValMap(types.DefaultTypeAdapter, celMap)
	}

	// Named map types, e.g. corpus.Project.
	if m, ok := asStringMap(value); ok {
		return ConvertToCELValue(m)
	}

	return types.NullValue
}

// asStringMap converts maps with string keys (including named map types) to
// a map[string]any.
func asStringMap(value any) (map[string]any, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}

	return out, true
}
