// Package errors provides standardized error types and helpers for the boarpig codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates malformed markup or a grammar violation
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal indicates an internal consistency check failed
	ErrInternal = errors.New("internal error")
	// ErrUnsupported indicates an unsupported operation, format or asset
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "page text", "project file")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ParseError reports a structural error at a source position, such as a
// missing closing parenthesis.
type ParseError struct {
	Position int    // Byte offset in the normalized source
	Tag      string // Tag being parsed when the error occurred
	Message  string // Error details
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("parsing error at position %d, tag %s: %s", e.Position, e.Tag, e.Message)
	}
	return fmt.Sprintf("parsing error at position %d, tag %s", e.Position, e.Tag)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidInput
}

// UnrecognizedTagError reports a tag lexeme outside the markup vocabulary.
type UnrecognizedTagError struct {
	Position int
	Tag      string
}

func (e *UnrecognizedTagError) Error() string {
	return fmt.Sprintf("unrecognized tag %q at position %d", e.Tag, e.Position)
}

func (e *UnrecognizedTagError) Unwrap() error {
	return ErrInvalidInput
}

// InvalidChildError reports a child that is not admissible under its parent.
type InvalidChildError struct {
	Parent string // Parent tag
	Child  string // Child tag, or "text" for literal text
	Value  string // Offending text, if any
}

func (e *InvalidChildError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid child: %s does not accept %s %q", e.Parent, e.Child, e.Value)
	}
	return fmt.Sprintf("invalid child: %s does not accept %s", e.Parent, e.Child)
}

func (e *InvalidChildError) Unwrap() error {
	return ErrInvalidInput
}

// ProtocolError reports a misuse of the tree-walk protocol, e.g. dispatching
// on a tree that is not rooted at a project element.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return ErrInternal
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewParse creates a ParseError
func NewParse(pos int, tag, message string) *ParseError {
	return &ParseError{
		Position: pos,
		Tag:      tag,
		Message:  message,
	}
}

// NewInvalidChild creates an InvalidChildError
func NewInvalidChild(parent, child, value string) *InvalidChildError {
	return &InvalidChildError{
		Parent: parent,
		Child:  child,
		Value:  value,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
