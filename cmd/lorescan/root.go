package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for lorescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lorescan",
		Short: "Entity recognition and matching engine for fiction series",
		Long: `Lorescan tracks named entities (characters, locations, organizations)
across the manuscripts of a fiction series.

It extracts candidate names from chapter prose, classifies them through a
layered heuristic chain with an optional LLM enhancement phase, and detects
where known entities appear across books, including entities crossing from
one book into another.

Manuscripts live in a local SQLite database. Use "lorescan import" to load
chapter files, "lorescan extract" to discover entities, and "lorescan detect"
to match stored entities against a manuscript.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewDetectCmd())
	cmd.AddCommand(NewPresenceCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
