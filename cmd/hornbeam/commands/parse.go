package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/search"
	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

// ErrLanguageRequired is returned when stdin is parsed without --lang.
var ErrLanguageRequired = errors.New("--lang is required when reading stdin")

type parseOptions struct {
	lang      string
	kind      string
	example   string
	context   string
	showKinds bool
	tree      bool
}

// NewParseCommand creates the parse command.
func NewParseCommand(deps Deps) *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Inspect syntax trees and search them",
		Long: `Parse source files with tree-sitter and print their trees or search them.

Examples:
  hornbeam parse --tree main.rs                     # Begin/Text/End outline
  hornbeam parse -l rust --show-kinds               # list node kinds of a grammar
  hornbeam parse -k call_expression 'src/*.rs'      # print every call
  hornbeam parse -e 'a.b()' -c 'fn f() { @@; }' x.rs  # nodes shaped like an example
  cat lib.rs | hornbeam parse -l rust -t -          # read stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, deps, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "grammar name (default: detect from file)")
	cmd.Flags().BoolVarP(&opts.showKinds, "show-kinds", "s", false, "list the named node kinds of the grammar")
	cmd.Flags().BoolVarP(&opts.tree, "tree", "t", false, "print the syntax tree outline")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "print the text of every node of this kind")
	cmd.Flags().StringVarP(&opts.example, "example", "e", "", "print the text of every node shaped like this snippet")
	cmd.Flags().StringVarP(&opts.context, "context", "c", "", "snippet embedding the example at @@")

	return cmd
}

func runParse(cmd *cobra.Command, deps Deps, opts parseOptions, args []string) error {
	out := cmd.OutOrStdout()

	if opts.showKinds && len(args) == 0 {
		if opts.lang == "" {
			return ErrLanguageRequired
		}

		return printKinds(out, opts.lang)
	}

	sess, err := openSession(cmd, deps, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close(cmd.Context())

	inputs, err := sess.readInputs(args)
	if err != nil {
		return err
	}

	header := color.New(color.Bold)

	for _, in := range inputs {
		lang, langErr := inputLanguage(opts.lang, in)
		if langErr != nil {
			return langErr
		}

		if len(inputs) > 1 {
			_, _ = header.Fprintf(out, "# %s\n", in.name)
		}

		if opts.showKinds {
			err = printKinds(out, lang)
			if err != nil {
				return err
			}
		}

		err = parseInput(cmd, opts, lang, in, out)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
	}

	return nil
}

// inputLanguage returns the forced language or detects it from the file.
func inputLanguage(forced string, in input) (string, error) {
	if forced != "" {
		return forced, nil
	}

	if in.name == stdinName {
		return "", ErrLanguageRequired
	}

	return syntax.DetectLanguage(in.name, []byte(in.text))
}

func printKinds(w io.Writer, lang string) error {
	language, err := syntax.LookupLanguage(lang)
	if err != nil {
		return err
	}

	for _, name := range language.KindNames() {
		_, err = fmt.Fprintln(w, name)
		if err != nil {
			return fmt.Errorf("write kinds: %w", err)
		}
	}

	return nil
}

func parseInput(cmd *cobra.Command, opts parseOptions, lang string, in input, w io.Writer) error {
	finding := opts.kind != "" || opts.example != ""
	if opts.showKinds && !opts.tree && !finding {
		return nil
	}

	parser, err := syntax.NewParserFor(lang, syntax.Lenient())
	if err != nil {
		return err
	}

	var finder search.Finder

	switch {
	case opts.kind != "":
		finder, err = search.KindFinderFor(parser.Language(), opts.kind)
	case opts.example != "":
		var schema search.Schema

		schema, err = search.ExampleSchema(cmd.Context(), parser, opts.example, opts.context)
		if err == nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "syntax: %s\n", schema)
			finder = search.SchemaFinder(schema)
		}
	}

	if err != nil {
		return err
	}

	tree, err := parser.Parse(cmd.Context(), []byte(in.text))
	if err != nil {
		return err
	}
	defer tree.Close()

	if opts.tree || !finding {
		err = syntax.Dump(w, tree.Root())
		if err != nil {
			return err
		}
	}

	if finder == nil {
		return nil
	}

	for _, text := range search.Find(tree, finder) {
		_, err = fmt.Fprintln(w, text)
		if err != nil {
			return fmt.Errorf("write match: %w", err)
		}
	}

	return nil
}
