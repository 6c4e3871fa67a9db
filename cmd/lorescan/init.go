package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/lorescan/internal/config"
)

//go:embed templates/lorescan.yaml templates/gazetteer.yaml
var initTemplates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a lorescan configuration in the current directory",
		Long: `Init creates a .lorescan configuration file and a gazetteer extension
template in the current directory, and creates the data directory that
holds the project database.

The generated files include:
- Default settings for the confidence threshold and LLM enhancement
- Commented examples for curated names, noise words, and acronyms

Examples:
  # Create .lorescan and gazetteer.yaml in current directory
  lorescan init

  # Create config file at a specific path
  lorescan init -o myconfig.yaml

  # Force overwrite existing files
  lorescan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().StringP("gazetteer", "g", "gazetteer.yaml",
		"Output file path for the gazetteer extension template")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	gazetteerPath, err := cmd.Flags().GetString("gazetteer")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeTemplate("templates/lorescan.yaml", outputPath, force); err != nil {
		return err
	}
	fmt.Printf("Created configuration file: %s\n", outputPath)

	if err := writeTemplate("templates/gazetteer.yaml", gazetteerPath, force); err != nil {
		return err
	}
	fmt.Printf("Created gazetteer template:  %s\n", gazetteerPath)

	// The database directory is created up front so the first import
	// does not depend on XDG directory creation succeeding silently.
	dataDir := config.XDGDataDir()
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	fmt.Printf("Data directory:              %s\n", dataDir)

	fmt.Println("\nEdit these files to configure:")
	fmt.Println("  - The default project name and confidence threshold")
	fmt.Println("  - Known names of your series (gazetteer)")
	fmt.Println("  - LLM enhancement of flagged candidates")

	return nil
}

// writeTemplate writes one embedded template, refusing to overwrite an
// existing file unless force is set.
func writeTemplate(templateName, outputPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := initTemplates.ReadFile(templateName)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
