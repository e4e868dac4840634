// Package errors provides centralized error definitions and error handling
// utilities for the assetgen codebase. It defines domain-specific errors,
// sentinel errors, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - SessionError: errors related to durable session state
//   - GenerationError: errors from the artifact producer
//   - EvaluationError: errors from the artifact scorer
//   - DeployError: errors while placing assets into a project tree
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewSessionError("failed to load session", errors.ErrSessionCorrupted)
//	err = err.WithSessionID("myapp_20250110_142301.000512")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrRateLimited) { ... }
//
//	var genErr *errors.GenerationError
//	if errors.As(err, &genErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Rate-limit and quota responses from the producer are the only retryable
// condition in this system; everything else either skips the item or aborts
// the run, so classification here is deliberately narrow.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors. These are state-fatal: continuing after any
// of them would silently diverge from the recorded history.
var (
	// ErrSessionNotFound indicates that a session could not be found.
	ErrSessionNotFound = New("session not found")
	// ErrSessionCorrupted indicates that stored session data cannot be parsed.
	ErrSessionCorrupted = New("session data corrupted")
	// ErrSessionIDMismatch indicates the stored session id differs from the requested one.
	ErrSessionIDMismatch = New("session id mismatch")
	// ErrSessionComplete indicates a resume was requested for a finished session.
	ErrSessionComplete = New("session already complete")
)

// Producer-related sentinel errors
var (
	// ErrRateLimited indicates the producer rejected the call due to rate
	// limiting or quota exhaustion. The only retryable condition.
	ErrRateLimited = New("producer rate limited")
	// ErrNoImagePayload indicates the producer reported success but returned
	// no usable artifact bytes. Never retried.
	ErrNoImagePayload = New("response contained no image payload")
	// ErrRetriesExhausted indicates the retry budget ran out.
	ErrRetriesExhausted = New("retries exhausted")
	// ErrMissingAPIKey indicates the producer credential is not configured.
	ErrMissingAPIKey = New("api key not configured")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// classified is implemented by all domain errors in this package.
type classified interface {
	error
	Unwrap() error
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SessionError represents errors related to durable session state.
//
// Example:
//
//	err := errors.NewSessionError("failed to load session", errors.ErrSessionCorrupted)
//	err = err.WithSessionID("myapp_20250110_142301.000512")
type SessionError struct {
	baseError
	SessionID string
	Path      string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// WithPath adds the session file path to the error context.
func (e *SessionError) WithPath(path string) *SessionError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	prefix := "session error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("session error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GenerationError represents errors from the artifact producer.
//
// Example:
//
//	err := errors.NewGenerationError("generate failed", errors.ErrRateLimited)
//	err = err.WithAssetType("icon").WithCoordinates(2, 3)
type GenerationError struct {
	baseError
	AssetType string
	Iteration int
	Variant   int
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(message string, cause error) *GenerationError {
	return &GenerationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  errors.Is(cause, ErrRateLimited),
			userFacing: true,
		},
		Iteration: -1,
		Variant:   -1,
	}
}

// WithAssetType adds the asset type to the error context.
func (e *GenerationError) WithAssetType(assetType string) *GenerationError {
	e.AssetType = assetType
	return e
}

// WithCoordinates adds the (iteration, variant) coordinates to the error context.
func (e *GenerationError) WithCoordinates(iteration, variant int) *GenerationError {
	e.Iteration = iteration
	e.Variant = variant
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *GenerationError) WithRetryable(r bool) *GenerationError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *GenerationError) Error() string {
	var parts []string
	if e.AssetType != "" {
		parts = append(parts, fmt.Sprintf("type=%s", e.AssetType))
	}
	if e.Iteration >= 0 {
		parts = append(parts, fmt.Sprintf("iter=%d", e.Iteration))
	}
	if e.Variant >= 0 {
		parts = append(parts, fmt.Sprintf("variant=%d", e.Variant))
	}

	prefix := "generation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("generation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *GenerationError) Is(target error) bool {
	if _, ok := target.(*GenerationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// EvaluationError represents errors from the artifact scorer.
type EvaluationError struct {
	baseError
	ArtifactPath string
}

// NewEvaluationError creates a new EvaluationError.
func NewEvaluationError(message string, cause error) *EvaluationError {
	return &EvaluationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithArtifactPath adds the scored artifact's path to the error context.
func (e *EvaluationError) WithArtifactPath(path string) *EvaluationError {
	e.ArtifactPath = path
	return e
}

// Error returns the formatted error message.
func (e *EvaluationError) Error() string {
	prefix := "evaluation error"
	if e.ArtifactPath != "" {
		prefix = fmt.Sprintf("evaluation error [artifact=%s]", e.ArtifactPath)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *EvaluationError) Is(target error) bool {
	if _, ok := target.(*EvaluationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DeployError represents errors while placing assets into a project tree.
type DeployError struct {
	baseError
	AssetType string
	Target    string
}

// NewDeployError creates a new DeployError.
func NewDeployError(message string, cause error) *DeployError {
	return &DeployError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithAssetType adds the asset type to the error context.
func (e *DeployError) WithAssetType(assetType string) *DeployError {
	e.AssetType = assetType
	return e
}

// WithTarget adds the deploy target path to the error context.
func (e *DeployError) WithTarget(target string) *DeployError {
	e.Target = target
	return e
}

// Error returns the formatted error message.
func (e *DeployError) Error() string {
	var parts []string
	if e.AssetType != "" {
		parts = append(parts, fmt.Sprintf("type=%s", e.AssetType))
	}
	if e.Target != "" {
		parts = append(parts, fmt.Sprintf("target=%s", e.Target))
	}

	prefix := "deploy error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("deploy error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DeployError) Is(target error) bool {
	if _, ok := target.(*DeployError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition that
// may succeed on retry. In this system that means rate-limit or quota
// responses from the producer; nothing else is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ce classified
	if As(err, &ce) {
		return ce.IsRetryable()
	}

	return Is(err, ErrRateLimited)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var ce classified
	if As(err, &ce) {
		return ce.IsUserFacing()
	}

	return false
}

// IsStateFatal returns true if the error means the durable session state can
// no longer be trusted or advanced, so the run must abort.
func IsStateFatal(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrSessionNotFound) || Is(err, ErrSessionCorrupted) || Is(err, ErrSessionIDMismatch) {
		return true
	}
	var sessionErr *SessionError
	return As(err, &sessionErr)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't carry a classification.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var ce classified
	if As(err, &ce) {
		return ce.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
