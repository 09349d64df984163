package corpus_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/repofilter/pkg/corpus"
)

const testCorpusJSON = `{"Projects": [
    {
        "id": 1,
        "description": "test description",
        "name": "Test Project",
        "created_at": "2021-05-10T15:00:00.000Z",
        "default_branch": "master",
        "archived": false,
        "visibility": "internal",
        "issues_enabled": true,
        "creator_id": 10,
        "open_issues_count": 0,
        "issue_statistics": {
            "counts": {
                "all": 0,
                "closed": 0,
                "opened": 0
            }
        },
        "languages": {
            "Python": 80.0,
            "HTML": 20
        },
        "files": [
            {
                "id": "hash123",
                "name": "test.py",
                "type": "blob"
            }
        ]
    }
]}`

func TestRead(t *testing.T) {
	t.Parallel()

	c, err := corpus.Read(strings.NewReader(testCorpusJSON))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	p := c.Projects[0]

	name, ok := p.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Test Project", name)

	archived, ok := p.Get("archived")
	require.True(t, ok)
	assert.Equal(t, false, archived)

	assert.IsType(t, map[string]any{}, p["issue_statistics"])
	assert.IsType(t, []any{}, p["files"])

	assert.Equal(t, map[string]float64{"Python": 80.0, "HTML": 20.0}, p.Languages())

	_, ok = p.Get("missing")
	assert.False(t, ok)
}

func TestRead_Invalid(t *testing.T) {
	t.Parallel()

	_, err := corpus.Read(strings.NewReader(`{"Projects": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode corpus")
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(testCorpusJSON), 0o600))

	c, err := corpus.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = corpus.ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestProject_Languages(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		project corpus.Project
		want    map[string]float64
	}{
		"no languages attribute": {
			project: corpus.Project{"id": 1},
			want:    map[string]float64{},
		},
		"empty languages": {
			project: corpus.Project{"languages": map[string]any{}},
			want:    map[string]float64{},
		},
		"mixed number kinds": {
			project: corpus.Project{"languages": map[string]any{
				"Go":  uint64(60),
				"C":   30.5,
				"Asm": int64(9),
			}},
			want: map[string]float64{"Go": 60, "C": 30.5, "Asm": 9},
		},
		"non numeric percentage is skipped": {
			project: corpus.Project{"languages": map[string]any{
				"Go":  100.0,
				"Bad": "lots",
			}},
			want: map[string]float64{"Go": 100},
		},
		"typed map": {
			project: corpus.Project{"languages": map[string]float64{"Go": 100}},
			want:    map[string]float64{"Go": 100},
		},
		"languages is not a mapping": {
			project: corpus.Project{"languages": []any{"Go"}},
			want:    map[string]float64{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.project.Languages())
		})
	}
}

func TestProject_Select(t *testing.T) {
	t.Parallel()

	p := corpus.Project{"id": 1, "name": "a", "archived": false}

	got := p.Select([]string{"id", "name", "missing"})
	assert.Equal(t, corpus.Project{"id": 1, "name": "a"}, got)

	// Idempotent.
	assert.Equal(t, got, got.Select([]string{"id", "name", "missing"}))

	// Empty selection keeps the full record.
	assert.Equal(t, p, p.Select(nil))

	// The source record is not modified.
	assert.Len(t, p, 3)
}

func TestCorpus_Write(t *testing.T) {
	t.Parallel()

	c := corpus.New(corpus.Project{"id": 1, "name": "a"})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, c.Write(&buf, corpus.FormatJSON))
		assert.JSONEq(t, `{"Projects": [{"id": 1, "name": "a"}]}`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, c.Write(&buf, corpus.FormatYAML))
		assert.Contains(t, buf.String(), "Projects:")
		assert.Contains(t, buf.String(), "name: a")
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, c.Write(&buf, corpus.FormatYAML))

		got, err := corpus.Read(&buf)
		require.NoError(t, err)
		require.Equal(t, 1, got.Len())
		assert.Equal(t, "a", got.Projects[0]["name"])
	})

	t.Run("empty corpus", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, corpus.New().Write(&buf, corpus.FormatJSON))
		assert.JSONEq(t, `{"Projects": []}`, buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		err := c.Write(&bytes.Buffer{}, "xml")
		require.ErrorIs(t, err, corpus.ErrUnknownFormat)
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := corpus.ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, corpus.FormatYAML, f)

	_, err = corpus.ParseFormat("toml")
	require.ErrorIs(t, err, corpus.ErrUnknownFormat)
}
