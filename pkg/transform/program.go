// Package transform infers a rewrite rule from one before/after example
// pair and applies it to arbitrary source text.
//
// Both examples are compiled into patterns against the same placeholder
// names. Matching walks the input pattern over a parsed node and captures
// the single placeholder; rendering walks the output pattern and emits its
// literal gaps with the capture substituted.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

const tracerName = "hornbeam/transform"

// Program is an ordered list of rules plus the languages they read and
// write. The first rule matching a node wins. A Program is immutable and
// safe for concurrent use.
type Program struct {
	from  *syntax.Language
	to    *syntax.Language
	rules []*Rule
	opts  options
}

type options struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	mode     PlaceholderMode
	validate bool
}

// Option configures a Program.
type Option func(*options)

// WithLogger sets the logger used for per-rule debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the tracer used for Apply and RewriteAll spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithPlaceholderMode selects how placeholder names are located in examples.
func WithPlaceholderMode(mode PlaceholderMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithOutputValidation makes every rewrite reparse its result under the
// target language and fail with ErrInvalidOutput on syntax errors.
func WithOutputValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		mode:   PlaceholderSubstring,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// NewProgram assembles a program from already compiled rules.
func NewProgram(from, to *syntax.Language, rules []*Rule, opts ...Option) *Program {
	return &Program{
		from:  from,
		to:    to,
		rules: rules,
		opts:  buildOptions(opts),
	}
}

// Parse compiles a one-rule program from an example pair. Each example must
// parse cleanly under its language. Placeholder shapes the engine cannot
// express fail here with an error wrapping ErrContract.
func Parse(
	ctx context.Context,
	fromLang, toLang, fromExample, toExample string,
	placeholders []string,
	opts ...Option,
) (*Program, error) {
	o := buildOptions(opts)

	from, err := syntax.LookupLanguage(fromLang)
	if err != nil {
		return nil, err
	}

	to, err := syntax.LookupLanguage(toLang)
	if err != nil {
		return nil, err
	}

	fromTree, err := syntax.NewParser(from).Parse(ctx, []byte(fromExample))
	if err != nil {
		return nil, fmt.Errorf("before example: %w", err)
	}
	defer fromTree.Close()

	toTree, err := syntax.NewParser(to).Parse(ctx, []byte(toExample))
	if err != nil {
		return nil, fmt.Errorf("after example: %w", err)
	}
	defer toTree.Close()

	vars := NewPlaceholders(placeholders, o.mode)

	rule, err := CompileRule(fromTree.Root(), toTree.Root(), vars)
	if err != nil {
		return nil, fmt.Errorf("compile rule: %w", err)
	}

	o.logger.DebugContext(ctx, "compiled rule",
		slog.String("from", from.Name),
		slog.String("to", to.Name),
		slog.String("rule", rule.String()),
	)

	return &Program{from: from, to: to, rules: []*Rule{rule}, opts: o}, nil
}

// From returns the source language.
func (p *Program) From() *syntax.Language {
	return p.from
}

// To returns the target language.
func (p *Program) To() *syntax.Language {
	return p.to
}

// Rules returns the program's rules in evaluation order.
func (p *Program) Rules() []*Rule {
	return p.rules
}

// Apply parses text under the source language and tries each rule against
// the root node. It returns the first rendering, or ok == false when no rule
// matches. A rule is never partially applied.
func (p *Program) Apply(ctx context.Context, text string) (string, bool, error) {
	ctx, span := p.opts.tracer.Start(ctx, "hornbeam.apply", trace.WithAttributes(
		attribute.String("hornbeam.from", p.from.Name),
		attribute.String("hornbeam.to", p.to.Name),
	))
	defer span.End()

	tree, err := syntax.NewParser(p.from).Parse(ctx, []byte(text))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return "", false, fmt.Errorf("input: %w", err)
	}
	defer tree.Close()

	root := tree.Root()

	for idx, rule := range p.rules {
		out, ok, checkErr := rule.Check(root)

		p.opts.logger.DebugContext(ctx, "rule check",
			slog.Int("rule", idx),
			slog.String("kind", string(root.Kind())),
			slog.Bool("matched", ok),
		)

		if checkErr != nil {
			span.SetStatus(codes.Error, checkErr.Error())

			return "", false, fmt.Errorf("rule %d: %w", idx, checkErr)
		}

		if !ok {
			continue
		}

		err = p.validateOutput(ctx, out)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())

			return "", false, err
		}

		span.SetAttributes(attribute.Bool("hornbeam.matched", true))

		return out, true, nil
	}

	span.SetAttributes(attribute.Bool("hornbeam.matched", false))

	return "", false, nil
}

// RewriteAll rewrites every outermost node of text matched by a rule's
// anchored pattern and returns the spliced result with the replacement
// count. Text outside matched nodes is preserved byte for byte.
func (p *Program) RewriteAll(ctx context.Context, text string) (string, int, error) {
	ctx, span := p.opts.tracer.Start(ctx, "hornbeam.rewrite_all", trace.WithAttributes(
		attribute.String("hornbeam.from", p.from.Name),
		attribute.String("hornbeam.to", p.to.Name),
	))
	defer span.End()

	tree, err := syntax.NewParser(p.from, syntax.Lenient()).Parse(ctx, []byte(text))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return "", 0, fmt.Errorf("input: %w", err)
	}
	defer tree.Close()

	rw := &splicer{src: text}

	err = p.rewriteNode(ctx, tree.Root(), rw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return "", 0, err
	}

	span.SetAttributes(attribute.Int("hornbeam.replacements", rw.count))

	return rw.finish(), rw.count, nil
}

func (p *Program) rewriteNode(ctx context.Context, n syntax.Node, rw *splicer) error {
	for idx, rule := range p.rules {
		out, ok, err := rule.CheckAnchored(n)
		if err != nil {
			return fmt.Errorf("rule %d at byte %d: %w", idx, n.StartByte(), err)
		}

		if !ok {
			continue
		}

		err = p.validateOutput(ctx, out)
		if err != nil {
			return err
		}

		p.opts.logger.DebugContext(ctx, "rewrite",
			slog.Int("rule", idx),
			slog.String("kind", string(n.Kind())),
			slog.Int("start", n.StartByte()),
			slog.Int("end", n.EndByte()),
		)

		rw.replace(n.StartByte(), n.EndByte(), out)

		return nil
	}

	for _, child := range n.Nodes() {
		err := p.rewriteNode(ctx, child, rw)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Program) validateOutput(ctx context.Context, out string) error {
	if !p.opts.validate {
		return nil
	}

	tree, err := syntax.NewParser(p.to).Parse(ctx, []byte(out))
	if errors.Is(err, syntax.ErrSyntax) {
		return fmt.Errorf("%w: %s", ErrInvalidOutput, p.to.Name)
	}

	if err != nil {
		return fmt.Errorf("validate output: %w", err)
	}

	tree.Close()

	return nil
}

// splicer rebuilds text from left-to-right, non-overlapping replacements.
type splicer struct {
	sb    strings.Builder
	src   string
	pos   int
	count int
}

func (s *splicer) replace(start, end int, text string) {
	s.sb.WriteString(s.src[s.pos:start])
	s.sb.WriteString(text)
	s.pos = end
	s.count++
}

func (s *splicer) finish() string {
	s.sb.WriteString(s.src[s.pos:])

	return s.sb.String()
}
