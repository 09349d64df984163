package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"github.com/macropower/repofilter/api"
	"github.com/macropower/repofilter/pkg/corpus"
	"github.com/macropower/repofilter/pkg/filter"
	"github.com/macropower/repofilter/pkg/highlight"
	"github.com/macropower/repofilter/pkg/log"
	"github.com/macropower/repofilter/pkg/rules"
	"github.com/macropower/repofilter/pkg/yaml"
)

const (
	stdio = "-"

	cmdExamples = `  # Filter a corpus using the rule file found next to it:
  repofilter ./corpus.json

  # Use a specific rule file, and write YAML to a file:
  repofilter ./corpus.json -r rules.yaml -o filtered.yaml --format yaml

  # Read the corpus from stdin:
  cat ./corpus.json | repofilter -

  # Re-run whenever the corpus or rule file changes:
  repofilter ./corpus.json -r rules.yaml -o filtered.json --watch

  # Print the loaded rules:
  repofilter ./corpus.json --show-rules`
)

var tracer = otel.Tracer("cli")

type RunArgs struct {
	*RootArgs

	CorpusPath    string
	RulesPath     string
	OutputPath    string
	Format        string
	Style         string
	TraceEndpoint string
	Concurrency   int
	Watch         bool
	ShowRules     bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs:    rootArgs,
		CorpusPath:  stdio,
		OutputPath:  stdio,
		Style:       highlight.DefaultStyle,
		Concurrency: 1,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ra.RulesPath, "rules", "r", "",
		fmt.Sprintf("Path to the rule file, searched for next to the corpus by default %v", rules.DefaultFileNames))
	cmd.Flags().StringVarP(&ra.OutputPath, "output", "o", stdio,
		"Path to write the filtered corpus to, - for stdout (which also receives notices, use a file for clean output)")
	cmd.Flags().StringVar(&ra.Format, "format", "",
		fmt.Sprintf("Output format, one of: %s (default yaml for terminals, json otherwise)", corpus.AllFormats))
	cmd.Flags().StringVar(&ra.Style, "style", highlight.DefaultStyle,
		"Syntax highlighting style for YAML written to a terminal")
	cmd.Flags().IntVarP(&ra.Concurrency, "concurrency", "j", 1, "Number of projects evaluated in parallel")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch the corpus and rule file, and re-run on changes")
	cmd.Flags().BoolVar(&ra.ShowRules, "show-rules", false, "Print the loaded rules and exit")
	cmd.Flags().StringVar(&ra.TraceEndpoint, "trace-endpoint", "", "OTLP gRPC endpoint to export traces to")

	must(cmd.MarkFlagFilename("rules", "yaml", "yml"))
	must(cmd.MarkFlagFilename("output", "json", "yaml", "yml"))
	must(cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(corpus.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [corpus]",
		Short:   "Default command, can be used explicitly if the corpus path is ambiguous",
		Example: cmdExamples,
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return []cobra.Completion{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				ra.CorpusPath = args[0]
			}

			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	return cmd
}

func run(cmd *cobra.Command, ra *RunArgs) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if ra.TraceEndpoint != "" {
		shutdown, err := setupTracing(ctx, ra.TraceEndpoint)
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				slog.Error("shutdown tracing", slog.Any("error", err))
			}
		}()
	}

	rulesPath, err := ra.findRules()
	if err != nil {
		return err
	}

	if ra.ShowRules {
		rs, err := loadRules(ctx, rulesPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(rs)
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}

		mustN(cmd.OutOrStdout().Write(data))

		return nil
	}

	format, err := ra.outputFormat(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var input []byte
	if ra.CorpusPath == stdio {
		if ra.Watch {
			return fmt.Errorf("%w: cannot watch a corpus read from stdin", ErrInvalidArgs)
		}

		input, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	runOnce := func(ctx context.Context) error {
		return ra.filterOnce(ctx, cmd, rulesPath, input, format)
	}

	if !ra.Watch {
		return runOnce(ctx)
	}

	return watch(ctx, []string{ra.CorpusPath, rulesPath}, runOnce)
}

// findRules returns the rule file to load, which may be empty.
func (ra *RunArgs) findRules() (string, error) {
	if ra.RulesPath != "" {
		return ra.RulesPath, nil
	}

	start := "."
	if ra.CorpusPath != stdio {
		start = filepath.Dir(ra.CorpusPath)
	}

	path, err := rules.Find(start)
	if err != nil {
		return "", err //nolint:wrapcheck // Already wrapped.
	}

	slog.Debug("searched for rule file",
		slog.String("start", start),
		slog.String("path", path),
	)

	return path, nil
}

// outputFormat returns the configured format, or the default for the
// output destination.
func (ra *RunArgs) outputFormat(stdout io.Writer) (corpus.Format, error) {
	if ra.Format != "" {
		format, err := corpus.ParseFormat(ra.Format)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}

		return format, nil
	}

	if ra.OutputPath == stdio && isTerminal(stdout) {
		return corpus.FormatYAML, nil
	}

	return corpus.FormatJSON, nil
}

func (ra *RunArgs) filterOnce(
	ctx context.Context,
	cmd *cobra.Command,
	rulesPath string,
	input []byte,
	format corpus.Format,
) error {
	ctx, span := tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("corpus", ra.CorpusPath),
		attribute.String("rules", rulesPath),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	rs, err := loadRules(ctx, rulesPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var c *corpus.Corpus
	if input != nil {
		c, err = corpus.Read(bytes.NewReader(input))
	} else {
		c, err = corpus.ReadFile(ra.CorpusPath)
	}

	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("read corpus: %w", err)
	}

	projects, err := filter.New(rs, filter.WithConcurrency(ra.Concurrency)).Run(ctx, c)
	if err != nil {
		return fmt.Errorf("filter corpus: %w", err)
	}

	var out bytes.Buffer

	err = corpus.New(projects...).Write(&out, format)
	if err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}

	if ra.OutputPath == stdio {
		data := out.Bytes()
		if format == corpus.FormatYAML && isTerminal(cmd.OutOrStdout()) {
			data = ra.highlight(cmd.OutOrStdout(), data)
		}

		mustN(cmd.OutOrStdout().Write(data))
	} else {
		err = api.WriteFile(ra.OutputPath, out.Bytes())
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	logger.Info("filtered corpus",
		slog.String("matched", humanize.Comma(int64(len(projects)))),
		slog.String("total", humanize.Comma(int64(c.Len()))),
		slog.String("output", ra.OutputPath),
	)

	return nil
}

func loadRules(ctx context.Context, path string, notice io.Writer) (*rules.RuleSet, error) {
	_, span := tracer.Start(ctx, "load rules", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	rs, err := rules.LoadFile(path, rules.WithNoticeWriter(notice))
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("load rules: %w", err)
	}

	span.SetAttributes(attribute.Int("rules", len(rs.Rules())))

	return rs, nil
}

// highlight colors YAML for the terminal at w. Highlighting errors are
// logged and the plain content is returned.
func (ra *RunArgs) highlight(w io.Writer, data []byte) []byte {
	profile := termenv.NewOutput(w).EnvColorProfile()

	colored, err := highlight.New(profile, highlight.WithStyle(ra.Style)).Highlight(data)
	if err != nil {
		slog.Debug("highlight output", slog.Any("error", err))

		return data
	}

	return colored
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: File descriptors fit in an int.
}
