// Package main provides the entry point for the hornbeam CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/cmd/hornbeam/commands"
	"github.com/Sumatoshi-tech/hornbeam/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := newRootCommand(commands.DefaultDeps()).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(deps commands.Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hornbeam",
		Short: "Hornbeam - structural code rewriting by example",
		Long: `Hornbeam infers syntax-tree rewrite rules from a single before/after
example pair and applies them to source code, within one language or
across two.

Commands:
  parse     Inspect syntax trees and search them
  rewrite   Rewrite code by example
  rules     Validate and apply YAML rule files
  mcp       Start MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(commands.FlagConfig, "", "config file (default is .hornbeam.yaml in . or $HOME)")
	rootCmd.PersistentFlags().BoolP(commands.FlagVerbose, "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP(commands.FlagQuiet, "q", false, "suppress summaries")

	rootCmd.AddCommand(commands.NewParseCommand(deps))
	rootCmd.AddCommand(commands.NewRewriteCommand(deps))
	rootCmd.AddCommand(commands.NewRulesCommand(deps))
	rootCmd.AddCommand(commands.NewMCPCommand(deps))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
