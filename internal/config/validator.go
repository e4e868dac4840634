package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "generator.max_retries")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Sweep dimension bounds. Iterations and variants above these limits
// are rejected at config load; per-run request values are clamped
// instead (see session.ClampSettings).
const (
	MaxIterations = 20
	MaxVariants   = 10
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateGenerator()...)
	errors = append(errors, c.validateGeneration()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validatePaths()...)

	return errors
}

// validateGenerator validates the GeneratorConfig
func (c *Config) validateGenerator() []ValidationError {
	var errors []ValidationError

	if c.Generator.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "generator.model",
			Value:   c.Generator.Model,
			Message: "cannot be empty",
		})
	}

	if c.Generator.APIKeyEnv == "" {
		errors = append(errors, ValidationError{
			Field:   "generator.api_key_env",
			Value:   c.Generator.APIKeyEnv,
			Message: "cannot be empty",
		})
	}

	// Retry budget validation
	const maxRetriesLimit = 20
	if c.Generator.MaxRetries < 1 {
		errors = append(errors, ValidationError{
			Field:   "generator.max_retries",
			Value:   c.Generator.MaxRetries,
			Message: "must be at least 1",
		})
	}
	if c.Generator.MaxRetries > maxRetriesLimit {
		errors = append(errors, ValidationError{
			Field:   "generator.max_retries",
			Value:   c.Generator.MaxRetries,
			Message: fmt.Sprintf("exceeds maximum of %d", maxRetriesLimit),
		})
	}

	// Backoff delay validation
	if c.Generator.BaseDelaySeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generator.base_delay_seconds",
			Value:   c.Generator.BaseDelaySeconds,
			Message: "must be positive",
		})
	}
	if c.Generator.MaxDelaySeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generator.max_delay_seconds",
			Value:   c.Generator.MaxDelaySeconds,
			Message: "must be positive",
		})
	}
	if c.Generator.MaxDelaySeconds > 0 && c.Generator.BaseDelaySeconds > c.Generator.MaxDelaySeconds {
		errors = append(errors, ValidationError{
			Field:   "generator.base_delay_seconds",
			Value:   c.Generator.BaseDelaySeconds,
			Message: fmt.Sprintf("should not exceed max_delay_seconds (%v)", c.Generator.MaxDelaySeconds),
		})
	}

	// Timeout validation
	const maxTimeoutSeconds = 600
	if c.Generator.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generator.timeout_seconds",
			Value:   c.Generator.TimeoutSeconds,
			Message: "must be positive",
		})
	}
	if c.Generator.TimeoutSeconds > maxTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "generator.timeout_seconds",
			Value:   c.Generator.TimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxTimeoutSeconds),
		})
	}

	if c.Evaluator.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "evaluator.timeout_seconds",
			Value:   c.Evaluator.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

// validateGeneration validates the GenerationConfig
func (c *Config) validateGeneration() []ValidationError {
	var errors []ValidationError

	if c.Generation.Iterations < 1 {
		errors = append(errors, ValidationError{
			Field:   "generation.iterations",
			Value:   c.Generation.Iterations,
			Message: "must be at least 1",
		})
	}
	if c.Generation.Iterations > MaxIterations {
		errors = append(errors, ValidationError{
			Field:   "generation.iterations",
			Value:   c.Generation.Iterations,
			Message: fmt.Sprintf("exceeds maximum of %d", MaxIterations),
		})
	}

	if c.Generation.Variants < 1 {
		errors = append(errors, ValidationError{
			Field:   "generation.variants",
			Value:   c.Generation.Variants,
			Message: "must be at least 1",
		})
	}
	if c.Generation.Variants > MaxVariants {
		errors = append(errors, ValidationError{
			Field:   "generation.variants",
			Value:   c.Generation.Variants,
			Message: fmt.Sprintf("exceeds maximum of %d", MaxVariants),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	if c.Paths.OutputBase != "" {
		path := c.Paths.OutputBase

		// Check for null bytes which are invalid in paths
		if strings.ContainsRune(path, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "paths.output_base",
				Value:   path,
				Message: "path contains invalid null character",
			})
		}

		// Reasonable path length limit (most filesystems have limits around 4096)
		const maxPathLength = 4096
		if len(path) > maxPathLength {
			errors = append(errors, ValidationError{
				Field:   "paths.output_base",
				Value:   path,
				Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
			})
		}
	}

	return errors
}
