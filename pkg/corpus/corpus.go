// Package corpus provides the project records filtered by repofilter.
//
// A corpus is read from a JSON (or YAML) document of the form:
//
//	{"Projects": [{"id": 1, "name": "...", "languages": {"Go": 100.0}}]}
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/macropower/repofilter/api"
	"github.com/macropower/repofilter/pkg/predicate"
	"github.com/macropower/repofilter/pkg/yaml"
)

// LanguagesKey is the project attribute holding the language composition.
const LanguagesKey = "languages"

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")

	AllFormats = []string{string(FormatJSON), string(FormatYAML)}
)

// ParseFormat returns the [Format] with the given name.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if !slices.Contains([]Format{FormatJSON, FormatYAML}, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}

	return f, nil
}

// Project is a single project record, mapping attribute names to values.
type Project map[string]any

// Get returns the value of an attribute, and whether it is present.
func (p Project) Get(name string) (any, bool) {
	v, ok := p[name]

	return v, ok
}

// Languages returns the language composition of the project, mapping
// language names to percentages. Non-numeric percentages are skipped.
// A project without languages returns an empty map.
func (p Project) Languages() map[string]float64 {
	langs := map[string]float64{}

	raw, ok := p[LanguagesKey]
	if !ok {
		return langs
	}

	switch m := raw.(type) {
	case map[string]any:
		for name, v := range m {
			if pct, ok := predicate.ToFloat64(v); ok {
				langs[name] = pct
			}
		}

	case map[string]float64:
		for name, pct := range m {
			langs[name] = pct
		}
	}

	return langs
}

// Select returns a new project containing only the given attributes.
// Attributes missing from p are omitted. An empty attribute list returns p.
func (p Project) Select(attrs []string) Project {
	if len(attrs) == 0 {
		return p
	}

	out := make(Project, len(attrs))
	for _, attr := range attrs {
		if v, ok := p[attr]; ok {
			out[attr] = v
		}
	}

	return out
}

// Corpus is an ordered collection of projects.
type Corpus struct {
	Projects []Project `json:"Projects"`
}

// New creates a [Corpus] holding the given projects.
func New(projects ...Project) *Corpus {
	return &Corpus{Projects: projects}
}

// Len returns the number of projects.
func (c *Corpus) Len() int {
	return len(c.Projects)
}

// Read decodes a corpus from r. JSON and YAML are both accepted.
func Read(r io.Reader) (*Corpus, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	c := &Corpus{}

	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	return c, nil
}

// ReadFile reads a corpus from a file.
func ReadFile(path string) (*Corpus, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus %q: %w", path, err)
	}

	c, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("corpus %q: %w", path, err)
	}

	return c, nil
}

// Write encodes the corpus to w using the given format.
func (c *Corpus) Write(w io.Writer, format Format) error {
	projects := c.Projects
	if projects == nil {
		projects = []Project{}
	}

	out := Corpus{Projects: projects}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
