// Package errors provides custom error types for payoff construction and
// the tooling built around it.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConstruction    = errors.New("invalid strategy construction")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrInputValidation = errors.New("input validation failed")
	ErrExpression      = errors.New("invalid expression")
)

// ConstructionError reports a malformed parameter passed to a strategy
// constructor. It always unwraps to ErrConstruction.
type ConstructionError struct {
	Component string
	Field     string
	Value     interface{}
	Message   string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construction error [%s] %s (%v): %s", e.Component, e.Field, e.Value, e.Message)
}

func (e *ConstructionError) Unwrap() error {
	return ErrConstruction
}

// NewConstructionError creates a new ConstructionError.
func NewConstructionError(component, field string, value interface{}, message string) *ConstructionError {
	return &ConstructionError{
		Component: component,
		Field:     field,
		Value:     value,
		Message:   message,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap returns the wrapped cause, or ErrInputValidation when none was given.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ExpressionError represents a failure to parse or evaluate a textual expression.
type ExpressionError struct {
	Expression string
	Err        error
}

func (e *ExpressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expression error %q: %v", e.Expression, e.Err)
	}
	return fmt.Sprintf("expression error %q", e.Expression)
}

// Is lets errors.Is match ExpressionError against ErrExpression.
func (e *ExpressionError) Is(target error) bool {
	return target == ErrExpression
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// NewExpressionError creates a new ExpressionError.
func NewExpressionError(expression string, err error) *ExpressionError {
	return &ExpressionError{
		Expression: expression,
		Err:        err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
