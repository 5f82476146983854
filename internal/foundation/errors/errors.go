package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// ErrorCategory says which part of a build failed.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound is a manuscript, front matter or index file that does not exist.
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryInclusion  ErrorCategory = "inclusion"
	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryConversion is a failure of the external converter.
	CategoryConversion ErrorCategory = "conversion"
	CategoryBuild      ErrorCategory = "build"
	CategoryInternal   ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryConfig:     7,
	CategoryConversion: 8,
	CategoryInternal:   10,
	CategoryInclusion:  11,
	CategoryBuild:      11,
	CategoryFileSystem: 11,
}

// ExitCode is the process exit status for an error of category c.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}

// ErrorSeverity is how far an error reaches.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal" // the run stops
	SeverityError   ErrorSeverity = "error" // the current document or member fails
	SeverityWarning ErrorSeverity = "warning"
)

// ClassifiedError is an error with a category, a severity and key/value
// context for logging.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  map[string]any
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

// Context returns a copy of the attached key/value pairs.
func (e *ClassifiedError) Context() map[string]any { return maps.Clone(e.context) }

// IsFatal reports whether the error stops the run.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with severity error.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	if b.err.context == nil {
		b.err.context = make(map[string]any)
	}
	b.err.context[key] = value
	return b
}

// Fatal marks the error as stopping the run.
func (b *ErrorBuilder) Fatal() *ErrorBuilder { return b.WithSeverity(SeverityFatal) }

// Build returns the error. The builder may be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = maps.Clone(b.err.context)
	return &e
}

// ConfigError starts a fatal configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError starts a fatal error about invalid input or arguments.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// InclusionError starts an inclusion directive error.
func InclusionError(message string) *ErrorBuilder {
	return NewError(CategoryInclusion, message)
}

// ConversionError starts an external converter error.
func ConversionError(message string) *ErrorBuilder {
	return NewError(CategoryConversion, message)
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether err's first ClassifiedError has category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}

// GetCategory returns the category of err, CategoryInternal when unclassified.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}
