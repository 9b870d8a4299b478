package api

import "time"

// HealthReport contains the results of a dependency health check run.
type HealthReport struct {
	Timestamp  time.Time     `json:"timestamp"`
	Checks     []HealthCheck `json:"checks"`
	Issues     []HealthIssue `json:"issues"`
	ErrorCount int           `json:"error_count"`
}

// HealthCheck records the outcome of probing a single dependency.
type HealthCheck struct {
	ResourceType string `json:"resource_type"` // "dynamodb_table", "s3_bucket", "aws_identity"
	ResourceID   string `json:"resource_id"`
	Status       string `json:"status"` // "ok", "error", "skipped"
	Detail       string `json:"detail,omitempty"`
}

// HealthIssue represents a single problem found during a health check run.
type HealthIssue struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	Severity     string `json:"severity"` // "error", "warning"
	Message      string `json:"message"`
}
