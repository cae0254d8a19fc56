package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/report"
)

// Sentinel errors.
var (
	ErrWriteStdin     = errors.New("--write cannot be used with stdin")
	ErrRewriteFailed  = errors.New("rewrite failed")
	ErrConflictingOut = errors.New("--write and --diff are mutually exclusive")
)

// outputOptions selects what happens with rewritten text.
type outputOptions struct {
	write   bool
	diff    bool
	noColor bool
}

func (o outputOptions) validate() error {
	if o.write && o.diff {
		return ErrConflictingOut
	}

	return nil
}

// ruleCount is the number of replacements one rule made in one input.
type ruleCount struct {
	rule string
	n    int
}

// rewriteFunc rewrites one text and reports the replacements per rule.
type rewriteFunc func(ctx context.Context, text string) (string, []ruleCount, error)

// rewriteInputs runs rewrite over every input and emits the result as
// rewritten text, a diff, or an in-place write followed by a summary.
func rewriteInputs(cmd *cobra.Command, sess *session, inputs []input, rewrite rewriteFunc, opts outputOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	colorize := !opts.noColor && !color.NoColor

	results := make([]report.Result, 0, len(inputs))

	for _, in := range inputs {
		if opts.write && in.name == stdinName {
			return ErrWriteStdin
		}

		start := time.Now()
		after, counts, err := rewrite(ctx, in.text)
		sess.record(ctx, counts, err, time.Since(start))

		res := report.Result{File: in.name, Before: in.text, After: in.text, Err: err}

		if err != nil {
			if !opts.write {
				return fmt.Errorf("%s: %w", in.name, err)
			}

			results = append(results, res)

			continue
		}

		for _, c := range counts {
			res.Replacements += c.n
		}

		if res.Replacements > 0 {
			res.After = after
		}

		switch {
		case opts.write:
			if res.After != res.Before {
				res.Err = sess.writeFile(in.name, res.After)
			}
		case opts.diff:
			if res.After != res.Before {
				err = report.Diff(out, in.name, res.Before, res.After, colorize)
			}
		default:
			_, err = fmt.Fprint(out, res.After)
		}

		if err != nil {
			return err
		}

		results = append(results, res)
	}

	if opts.write && !sess.quiet {
		err := report.Summary(out, results)
		if err != nil {
			return err
		}
	}

	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRewriteFailed, r.File, r.Err)
		}
	}

	return nil
}

// record reports one rewrite per rule to the rewrite metrics.
func (s *session) record(ctx context.Context, counts []ruleCount, err error, dur time.Duration) {
	if s.rewrites == nil {
		return
	}

	for _, c := range counts {
		outcome := observability.OutcomeUnmatched

		switch {
		case err != nil:
			outcome = observability.OutcomeError
		case c.n > 0:
			outcome = observability.OutcomeMatched
		}

		s.rewrites.RecordRewrite(ctx, c.rule, outcome, c.n, dur)
	}
}
