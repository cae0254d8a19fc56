package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/hornbeam/pkg/cache"
	"github.com/Sumatoshi-tech/hornbeam/pkg/search"
	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
)

// toolHandler carries the settings shared by every tool call.
type toolHandler struct {
	transformOpts []transform.Option
	programs      *cache.LRU[string, *transform.Program]
}

// programKey identifies a compiled program by everything that shapes it.
type programKey struct {
	FromLang        string   `json:"f"`
	ToLang          string   `json:"t"`
	Before          string   `json:"b"`
	After           string   `json:"a"`
	Placeholders    []string `json:"p"`
	PlaceholderMode string   `json:"m"`
}

// program compiles the rule of input, reusing earlier compilations.
func (h *toolHandler) program(ctx context.Context, input RewriteInput, toLang string) (*transform.Program, error) {
	key, err := json.Marshal(programKey{
		FromLang:        input.FromLang,
		ToLang:          toLang,
		Before:          input.Before,
		After:           input.After,
		Placeholders:    input.Placeholders,
		PlaceholderMode: input.PlaceholderMode,
	})
	if err != nil {
		return nil, fmt.Errorf("program key: %w", err)
	}

	return h.programs.GetOrCreate(string(key), func() (*transform.Program, error) {
		opts := slices.Clip(h.transformOpts)

		if input.PlaceholderMode != "" {
			pm, pmErr := transform.ParsePlaceholderMode(input.PlaceholderMode)
			if pmErr != nil {
				return nil, pmErr
			}

			opts = append(opts, transform.WithPlaceholderMode(pm))
		}

		prog, parseErr := transform.Parse(ctx, input.FromLang, toLang, input.Before, input.After, input.Placeholders, opts...)
		if parseErr != nil {
			return nil, fmt.Errorf("compile rule: %w", parseErr)
		}

		return prog, nil
	})
}

func (h *toolHandler) rewrite(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input RewriteInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code, input.FromLang)
	if err != nil {
		return errorResult(err)
	}

	if input.Before == "" {
		return errorResult(ErrEmptyExample)
	}

	mode := input.Mode
	if mode == "" {
		mode = RewriteModeAll
	}

	if mode != RewriteModeRoot && mode != RewriteModeAll {
		return errorResult(fmt.Errorf("%w: %q", ErrUnknownMode, input.Mode))
	}

	toLang := input.ToLang
	if toLang == "" {
		toLang = input.FromLang
	}

	prog, err := h.program(ctx, input, toLang)
	if err != nil {
		return errorResult(err)
	}

	result := RewriteResult{Rule: prog.Rules()[0].String()}

	if mode == RewriteModeRoot {
		out, ok, applyErr := prog.Apply(ctx, input.Code)
		if applyErr != nil {
			return errorResult(applyErr)
		}

		result.Output, result.Matched = input.Code, ok
		if ok {
			result.Output, result.Replacements = out, 1
		}

		return jsonResult(result)
	}

	out, n, err := prog.RewriteAll(ctx, input.Code)
	if err != nil {
		return errorResult(err)
	}

	result.Output, result.Replacements, result.Matched = out, n, n > 0

	return jsonResult(result)
}

func (h *toolHandler) tree(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input TreeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code, input.Language)
	if err != nil {
		return errorResult(err)
	}

	parser, err := syntax.NewParserFor(input.Language, syntax.Lenient())
	if err != nil {
		return errorResult(err)
	}

	tree, err := parser.Parse(ctx, []byte(input.Code))
	if err != nil {
		return errorResult(err)
	}
	defer tree.Close()

	var sb strings.Builder

	root := tree.Root()

	err = syntax.Dump(&sb, root)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(TreeResult{
		Language: parser.Language().Name,
		Root:     string(root.Kind()),
		Outline:  sb.String(),
		HasError: root.HasError(),
	})
}

func (h *toolHandler) find(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input FindInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code, input.Language)
	if err != nil {
		return errorResult(err)
	}

	parser, err := syntax.NewParserFor(input.Language)
	if err != nil {
		return errorResult(err)
	}

	var (
		finder search.Finder
		result FindResult
	)

	switch {
	case input.Kind != "":
		finder, err = search.KindFinderFor(parser.Language(), input.Kind)
		if err != nil {
			return errorResult(err)
		}
	case input.Example != "":
		schema, schemaErr := search.ExampleSchema(ctx, parser, input.Example, input.Context)
		if schemaErr != nil {
			return errorResult(schemaErr)
		}

		finder = search.SchemaFinder(schema)
		result.Schema = schema.String()
	default:
		return errorResult(ErrNoQuery)
	}

	lenient, err := syntax.NewParserFor(input.Language, syntax.Lenient())
	if err != nil {
		return errorResult(err)
	}

	tree, err := lenient.Parse(ctx, []byte(input.Code))
	if err != nil {
		return errorResult(err)
	}
	defer tree.Close()

	result.Matches = search.Find(tree, finder)
	if result.Matches == nil {
		result.Matches = []string{}
	}

	return jsonResult(result)
}
