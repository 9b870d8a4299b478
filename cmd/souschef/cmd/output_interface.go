package cmd

import "github.com/souschef/souschef/internal/output"

// OutputInterface defines the interface for output operations to enable dependency injection and testing.
type OutputInterface interface {
	Info(format string, a ...any)
	Error(format string, a ...any)
	Success(format string, a ...any)
	Warning(format string, a ...any)
	Table(headers []string, rows [][]string)
	Blank()
	Bold(text string) string
	Cyan(text string) string
	KeyValue(key, value string)
	Prompt(prompt string) string
}

// outputWrapper wraps the global output package functions to implement OutputInterface.
type outputWrapper struct{}

// NewOutputWrapper creates a new output wrapper that implements OutputInterface.
func NewOutputWrapper() OutputInterface {
	return &outputWrapper{}
}

func (o *outputWrapper) Info(format string, a ...any) {
	output.Info(format, a...)
}

func (o *outputWrapper) Error(format string, a ...any) {
	output.Error(format, a...)
}

func (o *outputWrapper) Success(format string, a ...any) {
	output.Success(format, a...)
}

func (o *outputWrapper) Warning(format string, a ...any) {
	output.Warning(format, a...)
}

func (o *outputWrapper) Table(headers []string, rows [][]string) {
	output.Table(headers, rows)
}

func (o *outputWrapper) Blank() {
	output.Blank()
}

func (o *outputWrapper) Bold(text string) string {
	return output.Bold(text)
}

func (o *outputWrapper) Cyan(text string) string {
	return output.Cyan(text)
}

func (o *outputWrapper) KeyValue(key, value string) {
	output.KeyValue(key, value)
}

func (o *outputWrapper) Prompt(prompt string) string {
	return output.Prompt(prompt)
}
