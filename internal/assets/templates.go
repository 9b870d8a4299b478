// Package assets provides access to embedded CloudFormation templates.
package assets

import (
	"embed"
)

// awsFiles embeds the AWS directory containing CloudFormation templates.
// Using embed.FS allows us to embed a directory tree without path traversal issues.
//
//go:embed aws/*.yaml
var awsFiles embed.FS

// GetCloudFormationTemplate returns the souschef storage CloudFormation
// template: the five DynamoDB tables and the recipe images bucket.
func GetCloudFormationTemplate() (string, error) {
	data, err := awsFiles.ReadFile("aws/cloudformation-souschef.yaml")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
