// Package main implements the souschef CLI tool.
// It provides the API server entrypoint and commands for managing
// infrastructure, users, and recipes.
package main

import "github.com/souschef/souschef/cmd/souschef/cmd"

func main() {
	cmd.Execute()
}
