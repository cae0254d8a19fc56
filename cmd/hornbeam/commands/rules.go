package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/ruleset"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and apply YAML rule files",
		Long: `A rule file lists named before/after example pairs:

  rules:
    - name: declare
      from_lang: rust
      to_lang: rust
      before: "fn a() {}"
      after: "fn a();"
      placeholders: [a]`,
	}

	cmd.AddCommand(newRulesValidateCommand(deps))
	cmd.AddCommand(newRulesApplyCommand(deps))

	return cmd
}

func newRulesValidateCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules.yaml>",
		Short: "Check a rule file against its schema and compile every rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, deps, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close(cmd.Context())

			file, set, err := loadRuleSet(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}

			if sess.quiet {
				return nil
			}

			return writeRuleTable(cmd.OutOrStdout(), file, set)
		},
	}
}

type rulesApplyOptions struct {
	outputOptions

	all bool
}

func newRulesApplyCommand(deps Deps) *cobra.Command {
	var opts rulesApplyOptions

	cmd := &cobra.Command{
		Use:   "apply <rules.yaml> [files...]",
		Short: "Rewrite files with every rule of a rule file",
		Long: `Rewrite files with a rule file.

Without --all the first rule whose before example matches the whole input
wins. With --all every rule rewrites every matching node, each rule working
on the output of the previous one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := opts.validate()
			if err != nil {
				return err
			}

			sess, err := openSession(cmd, deps, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close(cmd.Context())

			_, set, err := loadRuleSet(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}

			inputs, err := sess.readInputs(args[1:])
			if err != nil {
				return err
			}

			return rewriteInputs(cmd, sess, inputs, setRewriter(set, opts.all), opts.outputOptions)
		},
	}

	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "rewrite every matching node with every rule")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "print a diff instead of the output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored diffs")

	return cmd
}

// loadRuleSet reads, validates and compiles the rule file at path.
func loadRuleSet(ctx context.Context, sess *session, path string) (*ruleset.File, *ruleset.Set, error) {
	data, err := afero.ReadFile(sess.deps.Fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rule file: %w", err)
	}

	file, err := ruleset.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	set, err := file.Compile(ctx, sess.transformOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	if sess.providers.Logger != nil {
		set = set.WithLogger(sess.providers.Logger)
	}

	return file, set, nil
}

func writeRuleTable(w io.Writer, file *ruleset.File, set *ruleset.Set) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Rule", "From", "To", "Pattern"})

	for _, r := range file.Rules {
		pattern := ""

		if prog, ok := set.Program(r.Name); ok {
			pattern = prog.Rules()[0].Pattern().String()
		}

		tbl.AppendRow(table.Row{r.Name, r.FromLang, r.ToLang, pattern})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d rules", len(file.Rules)), "", "", "valid"})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write rule table: %w", err)
	}

	return nil
}

// setRewriter adapts a compiled rule set to rewriteFunc.
func setRewriter(set *ruleset.Set, all bool) rewriteFunc {
	return func(ctx context.Context, text string) (string, []ruleCount, error) {
		if all {
			out, counts, err := set.RewriteAll(ctx, text)
			if err != nil {
				return text, errorCounts(set), err
			}

			rc := make([]ruleCount, 0, len(counts))
			for _, c := range counts {
				rc = append(rc, ruleCount{rule: c.Rule, n: c.Replacements})
			}

			return out, rc, nil
		}

		out, rule, ok, err := set.Apply(ctx, text)
		if err != nil {
			return text, errorCounts(set), err
		}

		if !ok {
			return text, errorCounts(set), nil
		}

		return out, []ruleCount{{rule: rule, n: 1}}, nil
	}
}

// errorCounts lists every rule with no replacements.
func errorCounts(set *ruleset.Set) []ruleCount {
	names := set.Names()

	rc := make([]ruleCount, 0, len(names))
	for _, name := range names {
		rc = append(rc, ruleCount{rule: name})
	}

	return rc
}
