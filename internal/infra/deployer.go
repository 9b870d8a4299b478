// Package infra manages the CloudFormation stack that backs souschef
// storage: the DynamoDB tables and the recipe images bucket.
package infra

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/souschef/souschef/internal/assets"
	"github.com/souschef/souschef/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfnTypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const defaultMaxWaitTime = 15 * time.Minute
const defaultMinWaitTime = 10 * time.Second

// ImagesBucketOutputKey names the stack output holding the images bucket name.
const ImagesBucketOutputKey = "ImagesBucketName"

// Deployer manages the souschef CloudFormation stack.
type Deployer struct {
	cfn *cloudformation.Client
	s3  *s3.Client
	log *slog.Logger
}

// NewDeployer creates a Deployer from a loaded AWS SDK configuration.
func NewDeployer(cfg aws.Config, log *slog.Logger) *Deployer {
	return &Deployer{
		cfn: cloudformation.NewFromConfig(cfg),
		s3:  s3.NewFromConfig(cfg),
		log: log,
	}
}

// Status describes the current state of the stack.
type Status struct {
	StackName   string
	StackStatus string
	Reason      string
	LastUpdated time.Time
	Outputs     map[string]string
}

// Deploy creates the stack, or updates it when it already exists.
// An update reporting no changes is not an error.
// Returns the stack outputs on success.
func (d *Deployer) Deploy(ctx context.Context, stackName string) (map[string]string, error) {
	template, err := assets.GetCloudFormationTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load CloudFormation template: %w", err)
	}

	exists, err := d.stackExists(ctx, stackName)
	if err != nil {
		return nil, err
	}

	params := []cfnTypes.Parameter{
		{ParameterKey: aws.String("ProjectName"), ParameterValue: aws.String(constants.ProjectName)},
	}
	tags := []cfnTypes.Tag{
		{Key: aws.String("Project"), Value: aws.String(constants.ProjectName)},
	}

	if exists {
		d.log.Info("updating CloudFormation stack", "stack", stackName)
		_, err = d.cfn.UpdateStack(ctx, &cloudformation.UpdateStackInput{
			StackName:    &stackName,
			TemplateBody: &template,
			Parameters:   params,
			Tags:         tags,
		})
		if err != nil {
			if strings.Contains(err.Error(), "No updates are to be performed") {
				d.log.Info("stack is already up to date", "stack", stackName)
				return d.StackOutputs(ctx, stackName)
			}
			return nil, fmt.Errorf("failed to update stack: %w", err)
		}

		waiter := cloudformation.NewStackUpdateCompleteWaiter(d.cfn)
		err = waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: &stackName}, maxWaitForContext(ctx))
		if err != nil {
			return nil, d.wrapWaitError(ctx, stackName, "update", err)
		}
	} else {
		d.log.Info("creating CloudFormation stack", "stack", stackName)
		_, err = d.cfn.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:    &stackName,
			TemplateBody: &template,
			Parameters:   params,
			Tags:         tags,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stack: %w", err)
		}

		waiter := cloudformation.NewStackCreateCompleteWaiter(d.cfn)
		err = waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: &stackName}, maxWaitForContext(ctx))
		if err != nil {
			return nil, d.wrapWaitError(ctx, stackName, "creation", err)
		}
	}

	return d.StackOutputs(ctx, stackName)
}

// GetStatus returns the stack's status and outputs.
// Returns (nil, nil) when the stack does not exist.
func (d *Deployer) GetStatus(ctx context.Context, stackName string) (*Status, error) {
	resp, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: &stackName})
	if err != nil {
		if isStackNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe stack: %w", err)
	}
	if len(resp.Stacks) == 0 {
		return nil, nil
	}

	stack := resp.Stacks[0]
	status := &Status{
		StackName:   stackName,
		StackStatus: string(stack.StackStatus),
		Outputs:     parseStackOutputs(stack.Outputs),
	}
	if stack.StackStatusReason != nil {
		status.Reason = *stack.StackStatusReason
	}
	switch {
	case stack.LastUpdatedTime != nil:
		status.LastUpdated = *stack.LastUpdatedTime
	case stack.CreationTime != nil:
		status.LastUpdated = *stack.CreationTime
	}
	return status, nil
}

// Destroy empties the images bucket and deletes the stack.
// Destroying a stack that does not exist is a no-op.
func (d *Deployer) Destroy(ctx context.Context, stackName string) error {
	outputs, err := d.StackOutputs(ctx, stackName)
	if err != nil {
		if isStackNotExist(err) {
			d.log.Info("stack does not exist, nothing to destroy", "stack", stackName)
			return nil
		}
		return err
	}

	// The bucket must be empty before CloudFormation can delete it.
	if bucket := outputs[ImagesBucketOutputKey]; bucket != "" {
		d.log.Info("emptying images bucket", "bucket", bucket)
		if err := d.emptyBucket(ctx, bucket); err != nil {
			d.log.Warn("failed to empty images bucket", "bucket", bucket, "error", err)
		}
	}

	d.log.Info("deleting CloudFormation stack", "stack", stackName)
	_, err = d.cfn.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: &stackName})
	if err != nil {
		return fmt.Errorf("failed to initiate stack deletion: %w", err)
	}

	waiter := cloudformation.NewStackDeleteCompleteWaiter(d.cfn)
	err = waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: &stackName}, maxWaitForContext(ctx))
	if err != nil {
		return d.wrapWaitError(ctx, stackName, "deletion", err)
	}
	return nil
}

// StackOutputs returns the stack's output map.
func (d *Deployer) StackOutputs(ctx context.Context, stackName string) (map[string]string, error) {
	resp, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: &stackName})
	if err != nil {
		return nil, err
	}
	if len(resp.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", stackName)
	}
	return parseStackOutputs(resp.Stacks[0].Outputs), nil
}

func (d *Deployer) stackExists(ctx context.Context, stackName string) (bool, error) {
	_, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: &stackName})
	if err != nil {
		if isStackNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe stack: %w", err)
	}
	return true, nil
}

// wrapWaitError augments a waiter failure with the reasons of failed
// resource events, which CloudFormation does not surface in the wait error.
func (d *Deployer) wrapWaitError(ctx context.Context, stackName, operation string, waitErr error) error {
	reasons := d.failureReasons(ctx, stackName)
	if reasons == "" {
		return fmt.Errorf("stack %s %s failed: %w", stackName, operation, waitErr)
	}
	return fmt.Errorf("stack %s %s failed (%s): %w", stackName, operation, reasons, waitErr)
}

func (d *Deployer) failureReasons(ctx context.Context, stackName string) string {
	resp, err := d.cfn.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{StackName: &stackName})
	if err != nil {
		return ""
	}

	var reasons []string
	for _, event := range resp.StackEvents {
		if !strings.HasSuffix(string(event.ResourceStatus), "_FAILED") {
			continue
		}
		if event.LogicalResourceId == nil || event.ResourceStatusReason == nil {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", *event.LogicalResourceId, *event.ResourceStatusReason))
		if len(reasons) == 5 {
			break
		}
	}
	return strings.Join(reasons, "; ")
}

// emptyBucket deletes all object versions and delete markers so the
// bucket itself can be removed by CloudFormation.
func (d *Deployer) emptyBucket(ctx context.Context, bucketName string) error {
	paginator := s3.NewListObjectVersionsPaginator(d.s3, &s3.ListObjectVersionsInput{
		Bucket: &bucketName,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list bucket objects: %w", err)
		}

		var objects []s3Types.ObjectIdentifier
		for _, version := range page.Versions {
			if version.Key != nil {
				objects = append(objects, s3Types.ObjectIdentifier{
					Key:       version.Key,
					VersionId: version.VersionId,
				})
			}
		}
		for _, marker := range page.DeleteMarkers {
			if marker.Key != nil {
				objects = append(objects, s3Types.ObjectIdentifier{
					Key:       marker.Key,
					VersionId: marker.VersionId,
				})
			}
		}

		if len(objects) > 0 {
			_, err := d.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: &bucketName,
				Delete: &s3Types.Delete{Objects: objects},
			})
			if err != nil {
				return fmt.Errorf("failed to delete objects: %w", err)
			}
		}
	}
	return nil
}

func isStackNotExist(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

func parseStackOutputs(outputs []cfnTypes.Output) map[string]string {
	result := make(map[string]string)
	for _, output := range outputs {
		if output.OutputKey != nil && output.OutputValue != nil {
			result[*output.OutputKey] = *output.OutputValue
		}
	}
	return result
}

// maxWaitForContext caps waiter time at the context deadline minus a
// safety margin, falling back to a fixed maximum when no deadline is set.
func maxWaitForContext(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline) - defaultMinWaitTime
	}
	return defaultMaxWaitTime
}
