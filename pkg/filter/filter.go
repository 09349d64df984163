// Package filter applies a [rules.RuleSet] to a [corpus.Corpus].
//
// A project is kept when it satisfies every rule of the rule set. Kept
// projects retain their order in the corpus, and are projected onto the
// rule set's attributes when any are configured.
package filter

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/repofilter/pkg/corpus"
	"github.com/macropower/repofilter/pkg/log"
	"github.com/macropower/repofilter/pkg/rules"
)

// Filter matches projects against a rule set.
type Filter struct {
	tracer      trace.Tracer
	rules       *rules.RuleSet
	concurrency int
}

// Option configures a [Filter].
type Option func(*Filter)

// WithConcurrency sets the number of projects evaluated in parallel.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(f *Filter) {
		f.concurrency = max(n, 1)
	}
}

// WithTracer sets the tracer used for filter spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(f *Filter) {
		f.tracer = tracer
	}
}

// New creates a new [Filter] for the given rule set.
// A nil rule set matches every project.
func New(rs *rules.RuleSet, opts ...Option) *Filter {
	if rs == nil {
		rs = rules.Empty()
	}

	f := &Filter{
		tracer:      otel.Tracer("filter"),
		rules:       rs,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Match reports whether the project satisfies every rule.
// Rules that fail to evaluate are logged and count as a non-match.
func (f *Filter) Match(ctx context.Context, p corpus.Project) bool {
	for _, r := range f.rules.Rules() {
		match, err := r.Match(p)
		if err != nil {
			log.WithContext(ctx).Debug("rule not satisfied",
				slog.String("rule", r.String()),
				slog.Any("error", err),
			)

			return false
		}

		if !match {
			return false
		}
	}

	return true
}

// Run returns the matching projects of c, in corpus order, projected onto
// the rule set's attributes. The corpus is not modified.
//
// Run only fails if ctx is canceled.
func (f *Filter) Run(ctx context.Context, c *corpus.Corpus) ([]corpus.Project, error) {
	ctx, span := f.tracer.Start(ctx, "filter", trace.WithAttributes(
		attribute.Int("projects", c.Len()),
		attribute.Int("rules", len(f.rules.Rules())),
		attribute.Int("concurrency", f.concurrency),
	))
	defer span.End()

	matched := make([]bool, c.Len())

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(f.concurrency)

	for i, p := range c.Projects {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck // Return the context error.
			}

			matched[i] = f.Match(groupCtx, p)

			return nil
		})
	}

	err := group.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		span.RecordError(err)

		return nil, err //nolint:wrapcheck // Return the context error.
	}

	out := []corpus.Project{}
	for i, p := range c.Projects {
		if matched[i] {
			out = append(out, p.Select(f.rules.Attributes))
		}
	}

	span.SetAttributes(attribute.Int("matched", len(out)))

	log.WithContext(ctx).Debug("filtered corpus",
		slog.Int("projects", c.Len()),
		slog.Int("matched", len(out)),
	)

	return out, nil
}

// Run filters c with rs using the default options.
func Run(ctx context.Context, c *corpus.Corpus, rs *rules.RuleSet) ([]corpus.Project, error) {
	return New(rs).Run(ctx, c)
}
