package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameRewrite = "hornbeam_rewrite"
	ToolNameTree    = "hornbeam_tree"
	ToolNameFind    = "hornbeam_find"
)

// Rewrite modes.
const (
	RewriteModeRoot = "root"
	RewriteModeAll  = "all"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrEmptyLanguage indicates the language parameter is empty.
	ErrEmptyLanguage = errors.New("language parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrEmptyExample indicates a missing before example.
	ErrEmptyExample = errors.New("before parameter is required and must not be empty")
	// ErrUnknownMode indicates an unrecognized rewrite mode.
	ErrUnknownMode = errors.New(`mode must be "root" or "all"`)
	// ErrNoQuery indicates neither kind nor example was given to the find tool.
	ErrNoQuery = errors.New("one of kind or example is required")
)

// Input types (auto-generate JSON schemas via struct tags).

// RewriteInput is the input schema for the hornbeam_rewrite tool.
type RewriteInput struct {
	Code            string   `json:"code"                       jsonschema:"source code to rewrite"`
	FromLang        string   `json:"from_lang"                  jsonschema:"language of the before example and the code (e.g. rust javascript)"`
	ToLang          string   `json:"to_lang,omitempty"          jsonschema:"language of the after example (default: from_lang)"`
	Before          string   `json:"before"                     jsonschema:"example of the code to replace"`
	After           string   `json:"after"                      jsonschema:"the same example after the rewrite"`
	Placeholders    []string `json:"placeholders,omitempty"     jsonschema:"names in the examples that stand for varying code"`
	PlaceholderMode string   `json:"placeholder_mode,omitempty" jsonschema:"substring (default) or identifier"`
	Mode            string   `json:"mode,omitempty"             jsonschema:"root or all (default)"`
}

// TreeInput is the input schema for the hornbeam_tree tool.
type TreeInput struct {
	Code     string `json:"code"     jsonschema:"source code to parse"`
	Language string `json:"language" jsonschema:"grammar name (e.g. rust go python)"`
}

// FindInput is the input schema for the hornbeam_find tool.
type FindInput struct {
	Code     string `json:"code"              jsonschema:"source code to search"`
	Language string `json:"language"          jsonschema:"grammar name (e.g. rust go python)"`
	Kind     string `json:"kind,omitempty"    jsonschema:"node kind to match (e.g. call_expression)"`
	Example  string `json:"example,omitempty" jsonschema:"snippet whose shape to match"`
	Context  string `json:"context,omitempty" jsonschema:"snippet embedding the example at @@ so it parses"`
}

// Output types.

// RewriteResult is the structured result of hornbeam_rewrite.
type RewriteResult struct {
	Output       string `json:"output"`
	Rule         string `json:"rule"`
	Replacements int    `json:"replacements"`
	Matched      bool   `json:"matched"`
}

// TreeResult is the structured result of hornbeam_tree.
type TreeResult struct {
	Language string `json:"language"`
	Root     string `json:"root"`
	Outline  string `json:"outline"`
	HasError bool   `json:"has_error"`
}

// FindResult is the structured result of hornbeam_find.
type FindResult struct {
	Schema  string   `json:"schema,omitempty"`
	Matches []string `json:"matches"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCodeInput checks common code input constraints.
func validateCodeInput(code, language string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if language == "" {
		return ErrEmptyLanguage
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
