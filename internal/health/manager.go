// Package health probes the service's AWS dependencies and reports on their
// state. It backs the waitdb command and the startup dependency check.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/souschef/souschef/internal/api"
	awscfg "github.com/souschef/souschef/internal/config/aws"
	"github.com/souschef/souschef/internal/logger"
)

// DatabaseClient is the DynamoDB surface the health manager uses.
type DatabaseClient interface {
	DescribeTable(
		ctx context.Context,
		params *dynamodb.DescribeTableInput,
		optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// StorageClient is the S3 surface the health manager uses.
type StorageClient interface {
	HeadBucket(
		ctx context.Context,
		params *s3.HeadBucketInput,
		optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// IdentityClient is the STS surface the health manager uses.
type IdentityClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Manager checks the tables, bucket, and credentials the service depends on.
type Manager struct {
	db       DatabaseClient
	storage  StorageClient
	identity IdentityClient
	cfg      *awscfg.Config
	logger   *slog.Logger
}

// NewManager creates a health manager. The storage and identity clients may
// be nil; their checks are then skipped.
func NewManager(
	db DatabaseClient,
	storage StorageClient,
	identity IdentityClient,
	cfg *awscfg.Config,
	log *slog.Logger) *Manager {
	return &Manager{
		db:       db,
		storage:  storage,
		identity: identity,
		cfg:      cfg,
		logger:   log,
	}
}

// Check probes every dependency and returns a full report. Probe failures
// are recorded as issues rather than returned as errors.
func (m *Manager) Check(ctx context.Context) (*api.HealthReport, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, m.logger)
	reqLogger.Debug("starting dependency health check")

	report := &api.HealthReport{
		Timestamp: time.Now().UTC(),
		Checks:    []api.HealthCheck{},
		Issues:    []api.HealthIssue{},
	}

	m.checkTables(ctx, report)
	m.checkBucket(ctx, report)
	m.checkIdentity(ctx, report)

	for _, issue := range report.Issues {
		if issue.Severity == "error" {
			report.ErrorCount++
		}
	}

	reqLogger.Info("dependency health check completed",
		"checks", len(report.Checks),
		"issues", len(report.Issues),
		"error_count", report.ErrorCount)

	return report, nil
}

// CheckDatabase verifies that every configured table exists and is active.
// It returns the first failure and is the probe waitdb polls.
func (m *Manager) CheckDatabase(ctx context.Context) error {
	for _, table := range m.cfg.TableNames() {
		out, err := m.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})
		if err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
		if out.Table == nil || out.Table.TableStatus != dynamodbTypes.TableStatusActive {
			return fmt.Errorf("table %s is not active", table)
		}
	}
	return nil
}

// WaitForDatabase polls CheckDatabase until it succeeds or the timeout
// lapses. CI runs this before the test suite so dynamodb-local has time to
// come up.
func (m *Manager) WaitForDatabase(ctx context.Context, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := m.CheckDatabase(ctx)
		if err == nil {
			return nil
		}
		m.logger.Debug("database not ready", "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}

func (m *Manager) checkTables(ctx context.Context, report *api.HealthReport) {
	for _, table := range m.cfg.TableNames() {
		check := api.HealthCheck{ResourceType: "dynamodb_table", ResourceID: table, Status: "ok"}

		out, err := m.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})
		switch {
		case err != nil:
			check.Status = "error"
			check.Detail = apiErrorDetail(err)
			report.Issues = append(report.Issues, api.HealthIssue{
				ResourceType: "dynamodb_table",
				ResourceID:   table,
				Severity:     "error",
				Message:      fmt.Sprintf("describe failed: %s", check.Detail),
			})
		case out.Table == nil || out.Table.TableStatus != dynamodbTypes.TableStatusActive:
			status := "unknown"
			if out.Table != nil {
				status = string(out.Table.TableStatus)
			}
			check.Status = "error"
			check.Detail = status
			report.Issues = append(report.Issues, api.HealthIssue{
				ResourceType: "dynamodb_table",
				ResourceID:   table,
				Severity:     "error",
				Message:      fmt.Sprintf("table status is %s, expected ACTIVE", status),
			})
		}

		report.Checks = append(report.Checks, check)
	}
}

func (m *Manager) checkBucket(ctx context.Context, report *api.HealthReport) {
	check := api.HealthCheck{ResourceType: "s3_bucket", ResourceID: m.cfg.ImagesBucket, Status: "ok"}

	if m.storage == nil || m.cfg.ImagesBucket == "" {
		check.Status = "skipped"
		check.Detail = "images bucket not configured"
		report.Checks = append(report.Checks, check)
		return
	}

	_, err := m.storage.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(m.cfg.ImagesBucket),
	})
	if err != nil {
		check.Status = "error"
		check.Detail = apiErrorDetail(err)
		report.Issues = append(report.Issues, api.HealthIssue{
			ResourceType: "s3_bucket",
			ResourceID:   m.cfg.ImagesBucket,
			Severity:     "error",
			Message:      fmt.Sprintf("head bucket failed: %s", check.Detail),
		})
	}

	report.Checks = append(report.Checks, check)
}

func (m *Manager) checkIdentity(ctx context.Context, report *api.HealthReport) {
	check := api.HealthCheck{ResourceType: "aws_identity", Status: "ok"}

	if m.identity == nil {
		check.Status = "skipped"
		check.Detail = "identity client not configured"
		report.Checks = append(report.Checks, check)
		return
	}

	out, err := m.identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	switch {
	case err != nil:
		check.Status = "error"
		check.Detail = apiErrorDetail(err)
		report.Issues = append(report.Issues, api.HealthIssue{
			ResourceType: "aws_identity",
			Severity:     "error",
			Message:      fmt.Sprintf("caller identity check failed: %s", check.Detail),
		})
	case out.Account != nil:
		check.ResourceID = *out.Account
	}

	report.Checks = append(report.Checks, check)
}

// apiErrorDetail prefers the AWS API error code over the full error chain.
func apiErrorDetail(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return err.Error()
}
