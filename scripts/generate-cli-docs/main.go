// Package main provides a utility to generate a single markdown file documenting all CLI commands.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/souschef/souschef/cmd/souschef/cmd"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func main() {
	var outFile string
	flag.StringVar(&outFile, "out", "./docs/CLI.md", "output file for generated markdown")
	flag.Parse()

	if outFile == "" {
		log.Fatal("error: output file is required")
	}

	if err := generateCLIDocs(outFile); err != nil {
		log.Fatalf("error: %s", err)
	}
}

func generateCLIDocs(outFile string) error {
	if err := os.MkdirAll(filepath.Dir(outFile), 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.Create(filepath.Clean(outFile))
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: error closing file: %v", closeErr)
		}
	}()

	root := cmd.RootCmd()
	root.DisableAutoGenTag = true

	if _, err := fmt.Fprintln(file, "# souschef CLI Documentation"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	intro := "\nThis document lists all available CLI commands, their descriptions, flags, and examples."
	if _, err := fmt.Fprintln(file, intro); err != nil {
		return fmt.Errorf("writing introduction: %w", err)
	}

	if err := generateDocs(root, file, 2); err != nil {
		return fmt.Errorf("generating documentation: %w", err)
	}

	absPath, err := filepath.Abs(outFile)
	if err != nil {
		absPath = outFile
	}

	log.Printf("✅ Successfully generated CLI documentation in %s", absPath)
	return nil
}

func generateDocs(cobraCmd *cobra.Command, file *os.File, level int) error {
	if !cobraCmd.IsAvailableCommand() || cobraCmd.IsAdditionalHelpTopicCommand() {
		return nil
	}

	if err := writeDocHeader(file, strings.Repeat("#", level), cobraCmd); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := doc.GenMarkdown(cobraCmd, &buf); err != nil {
		return fmt.Errorf("generating markdown for %s: %w", cobraCmd.CommandPath(), err)
	}

	if err := writeOptionsSection(file, buf.String()); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(file); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	subcommands := cobraCmd.Commands()
	sort.Slice(subcommands, func(i, j int) bool {
		return subcommands[i].Name() < subcommands[j].Name()
	})

	for _, subCmd := range subcommands {
		if err := generateDocs(subCmd, file, level+1); err != nil {
			return err
		}
	}

	return nil
}

func writeDocHeader(file *os.File, headingPrefix string, cobraCmd *cobra.Command) error {
	if _, err := fmt.Fprintf(file, "%s %s\n\n", headingPrefix, cobraCmd.CommandPath()); err != nil {
		return fmt.Errorf("writing heading: %w", err)
	}

	if cobraCmd.Short != "" {
		if _, err := fmt.Fprintf(file, "%s\n\n", cobraCmd.Short); err != nil {
			return fmt.Errorf("writing short description: %w", err)
		}
	}

	if cobraCmd.Long != "" && cobraCmd.Long != cobraCmd.Short {
		if _, err := fmt.Fprintf(file, "%s\n\n", cobraCmd.Long); err != nil {
			return fmt.Errorf("writing long description: %w", err)
		}
	}

	if cobraCmd.Example != "" {
		if _, err := fmt.Fprintf(file, "**Examples:**\n\n```bash\n%s\n```\n\n", cobraCmd.Example); err != nil {
			return fmt.Errorf("writing examples: %w", err)
		}
	}

	return nil
}

// writeOptionsSection extracts the Options section from Cobra's generated
// markdown and writes it through, dropping the See Also and usage blocks.
func writeOptionsSection(file *os.File, markdown string) error {
	start := strings.Index(markdown, "### Options")
	if start < 0 {
		return nil
	}

	section := markdown[start:]
	for _, marker := range []string{"\n\n\n### ", "\n\n## ", "\n\n### See Also"} {
		if end := strings.Index(section, marker); end > 0 {
			section = section[:end]
			break
		}
	}

	if _, err := fmt.Fprintln(file, section); err != nil {
		return fmt.Errorf("writing options: %w", err)
	}

	return nil
}
