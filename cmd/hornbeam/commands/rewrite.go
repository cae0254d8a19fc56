package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/pkg/corpus"
	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
)

// Sentinel errors.
var (
	ErrMissingExamples = errors.New("--before and --after are required unless --corpus is set")
	ErrMissingFrom     = errors.New("--from is required with --before/--after")
	ErrMissingLabel    = errors.New("--label is required with --corpus")
)

// inlineRuleName labels metrics for a rule given on the command line.
const inlineRuleName = "inline"

type rewriteOptions struct {
	outputOptions

	from            string
	to              string
	before          string
	after           string
	vars            []string
	placeholderMode string
	corpusDir       string
	label           string
	fromGroup       string
	toGroup         string
	all             bool
	explain         bool
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(deps Deps) *cobra.Command {
	var opts rewriteOptions

	cmd := &cobra.Command{
		Use:   "rewrite [files...]",
		Short: "Rewrite code by example",
		Long: `Infer a rewrite rule from one before/after example pair and apply it.

Names given with --var stand for the part of the examples that varies. By
default the whole input must match the before example; --all rewrites every
matching node instead. The example pair may also come from a corpus directory
of <label>-<group>.<ext> files.

Examples:
  hornbeam rewrite --from rust --before 'fn a() {}' --after 'fn a();' --var a lib.rs
  hornbeam rewrite --from rust --to javascript --before 'fn a() {}' \
      --after 'function a() {}' --var a --all 'src/*.rs'
  hornbeam rewrite --corpus examples --label decl --var a --all --diff lib.rs
  hornbeam rewrite --from rust --before 'x + y' --after 'y + x' --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, deps, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "language of the before example and the input")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "language of the after example (default: --from)")
	cmd.Flags().StringVar(&opts.before, "before", "", "example of the code to replace")
	cmd.Flags().StringVar(&opts.after, "after", "", "the same example after the rewrite")
	cmd.Flags().StringArrayVarP(&opts.vars, "var", "V", nil, "placeholder name (repeatable)")
	cmd.Flags().StringVar(&opts.placeholderMode, "placeholder-mode", "",
		"substring or identifier (default: engine.placeholder_mode)")
	cmd.Flags().StringVar(&opts.corpusDir, "corpus", "", "directory of <label>-<group>.<ext> examples")
	cmd.Flags().StringVar(&opts.label, "label", "", "corpus example label")
	cmd.Flags().StringVar(&opts.fromGroup, "from-group", "before", "corpus group of the before example")
	cmd.Flags().StringVar(&opts.toGroup, "to-group", "after", "corpus group of the after example")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "rewrite every matching node, not just the whole input")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "print the compiled rule")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "print a diff instead of the output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored diffs")

	return cmd
}

func runRewrite(cmd *cobra.Command, deps Deps, opts rewriteOptions, args []string) error {
	err := opts.validate()
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, deps, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close(cmd.Context())

	tOpts := sess.transformOptions()

	if opts.placeholderMode != "" {
		mode, modeErr := transform.ParsePlaceholderMode(opts.placeholderMode)
		if modeErr != nil {
			return modeErr
		}

		tOpts = append(tOpts, transform.WithPlaceholderMode(mode))
	}

	prog, name, err := buildProgram(cmd.Context(), sess, opts, tOpts)
	if err != nil {
		return err
	}

	if opts.explain {
		for _, rule := range prog.Rules() {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), rule)
		}

		if len(args) == 0 {
			return nil
		}
	}

	inputs, err := sess.readInputs(args)
	if err != nil {
		return err
	}

	return rewriteInputs(cmd, sess, inputs, programRewriter(prog, name, opts.all), opts.outputOptions)
}

// buildProgram compiles the example pair from the flags or the corpus.
func buildProgram(
	ctx context.Context, sess *session, opts rewriteOptions, tOpts []transform.Option,
) (*transform.Program, string, error) {
	if opts.corpusDir != "" {
		if opts.label == "" {
			return nil, "", ErrMissingLabel
		}

		c, err := corpus.Load(afero.NewIOFS(afero.NewBasePathFs(sess.deps.Fs, opts.corpusDir)), ".")
		if err != nil {
			return nil, "", err
		}

		pair, err := c.Pair(opts.label, opts.fromGroup, opts.toGroup)
		if err != nil {
			return nil, "", err
		}

		prog, err := pair.Program(ctx, opts.vars, tOpts...)
		if err != nil {
			return nil, "", err
		}

		return prog, opts.label, nil
	}

	if opts.before == "" || opts.after == "" {
		return nil, "", ErrMissingExamples
	}

	if opts.from == "" {
		return nil, "", ErrMissingFrom
	}

	to := opts.to
	if to == "" {
		to = opts.from
	}

	prog, err := transform.Parse(ctx, opts.from, to, opts.before, opts.after, opts.vars, tOpts...)
	if err != nil {
		return nil, "", err
	}

	return prog, inlineRuleName, nil
}

// programRewriter adapts a one-program rewrite to rewriteFunc.
func programRewriter(prog *transform.Program, name string, all bool) rewriteFunc {
	return func(ctx context.Context, text string) (string, []ruleCount, error) {
		if all {
			out, n, err := prog.RewriteAll(ctx, text)

			return out, []ruleCount{{rule: name, n: n}}, err
		}

		out, ok, err := prog.Apply(ctx, text)
		if !ok {
			return text, []ruleCount{{rule: name}}, err
		}

		return out, []ruleCount{{rule: name, n: 1}}, err
	}
}
