package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/macropower/repofilter/api"
	"github.com/macropower/repofilter/pkg/expr"
	"github.com/macropower/repofilter/pkg/yaml"
)

// NoticeMissing is printed when no rule document could be loaded.
const NoticeMissing = "No filter configuration file found. No filters will be applied."

// DefaultFileNames are the rule file names searched for by [Find].
var DefaultFileNames = []string{".repofilter.yaml", "repofilter.yaml", "filter_config.yaml"}

var defaultEnvironment = sync.OnceValues(func() (*expr.Environment, error) {
	return expr.NewEnvironment()
})

// Option configures rule loading.
type Option func(*options)

type options struct {
	env    *expr.Environment
	notice io.Writer
}

func newOptions(opts ...Option) *options {
	o := &options{notice: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *options) environment() (*expr.Environment, error) {
	if o.env != nil {
		return o.env, nil
	}

	env, err := defaultEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return env, nil
}

// WithEnvironment sets the CEL environment used to compile match
// expressions.
func WithEnvironment(env *expr.Environment) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithNoticeWriter sets the writer receiving the missing rule file notice.
// Defaults to [os.Stdout].
func WithNoticeWriter(w io.Writer) Option {
	return func(o *options) {
		o.notice = w
	}
}

// LoadBytes decodes, validates and loads a YAML rule document.
// Errors include the annotated source of the rule document.
func LoadBytes(data []byte, opts ...Option) (*RuleSet, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}

	return load(doc, data, opts...)
}

// LoadFile loads the rule document at path.
//
// If path is empty, cannot be read, or does not contain valid YAML,
// [NoticeMissing] is printed to the notice writer and an empty [RuleSet] is
// returned. Rule documents that do not describe valid rules return an error.
func LoadFile(path string, opts ...Option) (*RuleSet, error) {
	o := newOptions(opts...)

	if path == "" {
		return missing(o, errors.New("no rule file"))
	}

	data, err := api.ReadFile(path)
	if err != nil {
		return missing(o, err)
	}

	doc, err := decode(data)
	if err != nil {
		return missing(o, err)
	}

	slog.Debug("read rule file", slog.String("path", path))

	rs, err := load(doc, data, opts...)
	if err != nil {
		return nil, fmt.Errorf("rule file %q: %w", path, err)
	}

	return rs, nil
}

func decode(data []byte) (any, error) {
	var doc any

	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, yaml.NewErrorWrapper(yaml.WithSource(data)).Wrap(err)
	}

	return doc, nil
}

func load(doc any, source []byte, opts ...Option) (*RuleSet, error) {
	if doc == nil {
		return Empty(), nil
	}

	err := Validate(doc)
	if err != nil {
		return nil, yaml.NewErrorWrapper(yaml.WithSource(source)).Wrap(err)
	}

	rs, err := Load(doc, opts...)
	if err != nil {
		var structErr *StructureError
		if errors.As(err, &structErr) && structErr.Path != nil {
			return nil, yaml.NewError(err, yaml.WithPath(structErr.Path), yaml.WithSource(source))
		}

		return nil, err
	}

	return rs, nil
}

func missing(o *options, cause error) (*RuleSet, error) {
	slog.Debug("rule file not loaded", slog.Any("error", cause))

	_, err := fmt.Fprintln(o.notice, NoticeMissing)
	if err != nil {
		return nil, fmt.Errorf("write notice: %w", err)
	}

	return Empty(), nil
}

// Find searches for a rule file, starting in the directory of start and
// walking up to the filesystem root, then falling back to the user's config
// directory. Returns an empty string if no rule file exists.
func Find(start string) (string, error) {
	path, err := api.FindConfigFile(start, DefaultFileNames)
	if err != nil {
		return "", fmt.Errorf("find rule file: %w", err)
	}

	if path != "" {
		return path, nil
	}

	userPath := api.GetConfigPath("rules.yaml")

	info, err := os.Stat(userPath)
	if err == nil && info.Mode().IsRegular() {
		return userPath, nil
	}

	return "", nil
}
