package yaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/repofilter/pkg/yaml"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"filters": {
			"type": "array",
			"items": {
				"type": "object",
				"minProperties": 1,
				"maxProperties": 1
			}
		},
		"attributes": {
			"type": ["array", "null"],
			"items": {"type": "string"}
		}
	}
}`

func TestNewValidator(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errMsg     string
		schemaData []byte
		wantErr    bool
	}{
		"valid schema": {
			schemaData: []byte(testSchema),
		},
		"empty schema": {
			schemaData: []byte(`{}`),
		},
		"invalid json": {
			schemaData: []byte(`{"invalid": json}`),
			wantErr:    true,
			errMsg:     "unmarshal schema",
		},
		"invalid schema": {
			schemaData: []byte(`{"type": "invalid_type"}`),
			wantErr:    true,
			errMsg:     "compile schema",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			validator, err := yaml.NewValidator("test", tc.schemaData)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				assert.Nil(t, validator)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, validator)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	validator := yaml.MustNewValidator("test", []byte(testSchema))

	tcs := map[string]struct {
		data     any
		wantPath string
		wantErr  bool
	}{
		"valid document": {
			data: map[string]any{
				"filters": []any{
					map[string]any{"id": "==//30"},
				},
				"attributes": []any{"id", "name"},
			},
		},
		"null attributes": {
			data: map[string]any{
				"filters":    []any{},
				"attributes": nil,
			},
		},
		"filter entry with two keys": {
			data: map[string]any{
				"filters": []any{
					map[string]any{"id": "==//30"},
					map[string]any{"id": "==//30", "name": "x"},
				},
			},
			wantErr:  true,
			wantPath: "$.filters[1]",
		},
		"filter entry is not a mapping": {
			data: map[string]any{
				"filters": []any{"id"},
			},
			wantErr:  true,
			wantPath: "$.filters[0]",
		},
		"attribute is not a string": {
			data: map[string]any{
				"attributes": []any{"id", 5},
			},
			wantErr:  true,
			wantPath: "$.attributes[1]",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := validator.Validate(tc.data)
			if !tc.wantErr {
				require.NoError(t, err)

				return
			}

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			require.NotNil(t, yamlErr.Path)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
		})
	}
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	source := []byte(`filters:
  - id: "==//30"
  - name: foo
attributes:
  - id
`)

	tcs := map[string]struct {
		err          *yaml.Error
		want         string
		wantContains []string
	}{
		"without location": {
			err:  yaml.NewError(errors.New("bad value")),
			want: "bad value",
		},
		"with path": {
			err: yaml.NewError(errors.New("bad value"),
				yaml.WithPath(yaml.NewPathBuilder().Root().Child("filters").Index(1).Build()),
			),
			want: "error at $.filters[1]: bad value",
		},
		"with path and source": {
			err: yaml.NewError(errors.New("bad value"),
				yaml.WithPath(yaml.NewPathBuilder().Root().Child("attributes").Build()),
				yaml.WithSource(source),
			),
			wantContains: []string{"bad value", "attributes"},
		},
		"nil error": {
			err:  yaml.NewError(nil),
			want: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := tc.err.Error()
			if tc.wantContains == nil {
				assert.Equal(t, tc.want, got)

				return
			}

			for _, want := range tc.wantContains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		var doc map[string]any

		err := yaml.Unmarshal([]byte(`{"Projects": [{"id": 1, "name": "a"}]}`), &doc)
		require.NoError(t, err)
		require.Contains(t, doc, "Projects")
		assert.Len(t, doc["Projects"], 1)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		var doc map[string]any

		err := yaml.Unmarshal(nil, &doc)
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		var doc map[string]any

		err := yaml.Unmarshal([]byte("filters:\n  - id: [\n"), &doc)
		require.Error(t, err)

		var yamlErr *yaml.Error
		require.ErrorAs(t, err, &yamlErr)
		assert.NotNil(t, yamlErr.Token)
	})
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	b, err := yaml.Marshal(map[string]any{
		"attributes": []string{"id", "name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "attributes:\n  - id\n  - name\n", string(b))
}
