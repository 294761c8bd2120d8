// Package apperr defines the error classes shared by the engine's domains.
// Callers classify failures with errors.As; messages stay human-readable.
package apperr

import "fmt"

// ValidationError reports input rejected before any state was mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup that matched nothing.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// RetryableError marks a failure after which the caller may re-run the same
// draft unchanged. Nothing was committed.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s failed, retry: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError.
func Retryable(op string, err error) error {
	return &RetryableError{Op: op, Err: err}
}

// ConfigError is fatal: the component cannot be constructed.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Setting, e.Message)
}

// Config builds a ConfigError.
func Config(setting, message string) error {
	return &ConfigError{Setting: setting, Message: message}
}
