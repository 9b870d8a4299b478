// Package workflow provides types for loading and validating the GitHub
// Actions workflow files this repository ships.
package workflow

import "fmt"

// PushTrigger narrows a push trigger to branch or tag patterns.
type PushTrigger struct {
	Branches []string `yaml:"branches,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// Trigger describes the events that start a workflow.
type Trigger struct {
	Push *PushTrigger `yaml:"push,omitempty"`
}

// Step is a single action or command invocation within a job.
// Exactly one of Uses or Run must be set.
type Step struct {
	Name string            `yaml:"name,omitempty"`
	ID   string            `yaml:"id,omitempty"`
	If   string            `yaml:"if,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// Job is an ordered list of steps executed on one runner.
type Job struct {
	Name   string `yaml:"name,omitempty"`
	RunsOn string `yaml:"runs-on"`
	Steps  []Step `yaml:"steps"`
}

// Workflow is the root of an Actions workflow file.
type Workflow struct {
	Name string         `yaml:"name"`
	On   Trigger        `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Validate checks that a workflow has required fields and that every step
// is well formed.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow name must not be empty")
	}
	if w.On.Push == nil {
		return fmt.Errorf("workflow must declare a push trigger")
	}
	if len(w.Jobs) == 0 {
		return fmt.Errorf("workflow must define at least one job")
	}

	for id, job := range w.Jobs {
		if job.RunsOn == "" {
			return fmt.Errorf("job %q: runs-on must not be empty", id)
		}
		if len(job.Steps) == 0 {
			return fmt.Errorf("job %q: steps must not be empty", id)
		}
		for i, step := range job.Steps {
			if step.Uses == "" && step.Run == "" {
				return fmt.Errorf("job %q step %d: either uses or run is required", id, i+1)
			}
			if step.Uses != "" && step.Run != "" {
				return fmt.Errorf("job %q step %d: uses and run are mutually exclusive", id, i+1)
			}
		}
	}

	return nil
}

// StepNames returns the step names of a job in declaration order.
func (j Job) StepNames() []string {
	names := make([]string, 0, len(j.Steps))
	for _, step := range j.Steps {
		names = append(names, step.Name)
	}
	return names
}
