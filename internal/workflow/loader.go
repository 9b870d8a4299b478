package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a workflow file from disk.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	wf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow file %s: %w", path, err)
	}
	return wf, nil
}

// Parse decodes workflow YAML and validates the result.
func Parse(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}
