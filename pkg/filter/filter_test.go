package filter_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/repofilter/pkg/corpus"
	"github.com/macropower/repofilter/pkg/filter"
	"github.com/macropower/repofilter/pkg/rules"
)

func languageTestCorpus() *corpus.Corpus {
	return corpus.New(
		corpus.Project{"id": uint64(1), "languages": map[string]any{"Python": 50.0, "C": 50.0}},
		corpus.Project{"id": uint64(2), "languages": map[string]any{"TeX": 10.0, "C": 90.0}},
		corpus.Project{"id": uint64(3), "languages": map[string]any{}},
		corpus.Project{"id": uint64(4), "languages": map[string]any{"Ada": 30.0, "Assembly": 30.0, "Batchfile": 40.0}},
	)
}

func ids(projects []corpus.Project) []any {
	out := []any{}
	for _, p := range projects {
		out = append(out, p["id"])
	}

	return out
}

func TestRun(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		wantIDs []any
	}{
		"no rules": {
			input:   "",
			wantIDs: []any{uint64(1), uint64(2), uint64(3), uint64(4)},
		},
		"atleast": {
			input: `
filters:
  - atleast_languages:
      - C: ">=//50.0"
`,
			wantIDs: []any{uint64(1), uint64(2)},
		},
		"atmost": {
			input: `
filters:
  - atmost_languages:
      - C: "<=//100.0"
      - TeX: "<=//100.0"
      - Python: "<=//100.0"
`,
			wantIDs: []any{uint64(1), uint64(2)},
		},
		"any": {
			input: `
filters:
  - any_languages:
      - TeX: ">//5"
      - Ada: ">//5"
`,
			wantIDs: []any{uint64(2), uint64(4)},
		},
		"explicit": {
			input: `
filters:
  - explicit_languages:
      - C: "<=//100.0"
      - Python: "<=//100.0"
`,
			wantIDs: []any{uint64(1)},
		},
		"attribute and language rules": {
			input: `
filters:
  - id: ">//1"
  - atleast_languages:
      - C: ">//0"
`,
			wantIDs: []any{uint64(2)},
		},
		"id mismatch": {
			input: `
filters:
  - id: "==//30"
`,
			wantIDs: []any{},
		},
		"expression": {
			input: `
match:
  - size(languageNames(project)) >= 3
`,
			wantIDs: []any{uint64(4)},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rs, err := rules.LoadBytes([]byte(tc.input))
			require.NoError(t, err)

			got, err := filter.Run(t.Context(), languageTestCorpus(), rs)
			require.NoError(t, err)
			assert.Equal(t, tc.wantIDs, ids(got))
		})
	}
}

func TestRun_MissingRuleFile(t *testing.T) {
	t.Parallel()

	var notice bytes.Buffer

	rs, err := rules.LoadFile(filepath.Join(t.TempDir(), "not_existing.file"), rules.WithNoticeWriter(&notice))
	require.NoError(t, err)
	assert.Equal(t, "No filter configuration file found. No filters will be applied.\n", notice.String())

	c := languageTestCorpus()

	got, err := filter.Run(t.Context(), c, rs)
	require.NoError(t, err)
	assert.Equal(t, c.Projects, got)
}

func TestRun_Projection(t *testing.T) {
	t.Parallel()

	rs, err := rules.LoadBytes([]byte(`
filters:
  - id: "<=//2"
attributes:
  - id
  - name
`))
	require.NoError(t, err)

	c := corpus.New(
		corpus.Project{"id": uint64(1), "name": "a", "archived": false},
		corpus.Project{"id": uint64(2), "archived": true},
		corpus.Project{"id": uint64(3), "name": "c"},
	)

	got, err := filter.Run(t.Context(), c, rs)
	require.NoError(t, err)
	assert.Equal(t, []corpus.Project{
		{"id": uint64(1), "name": "a"},
		{"id": uint64(2)},
	}, got)

	// The corpus is not modified.
	assert.Len(t, c.Projects[0], 3)
}

func TestFilter_Run_PreservesOrder(t *testing.T) {
	t.Parallel()

	rs, err := rules.LoadBytes([]byte(`
match:
  - project.id % 3 == 0
`))
	require.NoError(t, err)

	c := corpus.New()
	want := []any{}

	for i := range 500 {
		c.Projects = append(c.Projects, corpus.Project{"id": int64(i)})
		if i%3 == 0 {
			want = append(want, int64(i))
		}
	}

	got, err := filter.New(rs, filter.WithConcurrency(16)).Run(t.Context(), c)
	require.NoError(t, err)
	assert.Equal(t, want, ids(got))
}

func TestFilter_Run_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := filter.New(nil, filter.WithConcurrency(4)).Run(ctx, languageTestCorpus())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	project := corpus.Project{
		"id":             uint64(1),
		"name":           "Test Project",
		"archived":       false,
		"issues_enabled": true,
		"languages": map[string]any{
			"Python":   50.0,
			"C":        30.0,
			"TeX":      10.0,
			"Assembly": 10.0,
		},
	}

	tcs := map[string]struct {
		input string
		want  bool
	}{
		"atmost over all languages": {
			input: `
filters:
  - atmost_languages:
      - C: "<=//100.0"
      - Python: "<=//100.0"
      - TeX: "<=//100.0"
      - Assembly: "<=//100.0"
`,
			want: true,
		},
		"atmost missing languages": {
			input: `
filters:
  - atmost_languages:
      - C: "<=//100.0"
      - Python: "<=//100.0"
`,
			want: false,
		},
		"id mismatch": {
			input: `
filters:
  - id: "==//30"
`,
			want: false,
		},
		"bare literal": {
			input: `
filters:
  - name: Test Project
`,
			want: true,
		},
		"boolean": {
			input: `
filters:
  - issues_enabled: "==//TRUE"
  - archived: "!=//true"
`,
			want: true,
		},
		"coercion failure": {
			input: `
filters:
  - archived: "!=//maybe"
`,
			want: false,
		},
		"ordering on boolean": {
			input: `
filters:
  - archived: "<//true"
`,
			want: false,
		},
		"string ordering": {
			input: `
filters:
  - name: ">//Apple"
`,
			want: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rs, err := rules.LoadBytes([]byte(tc.input))
			require.NoError(t, err)

			assert.Equal(t, tc.want, filter.New(rs).Match(t.Context(), project))
		})
	}
}
