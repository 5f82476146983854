// Package errors provides the classified error primitives used across manuscript.
//
// Errors carry a category, a severity and structured context so the CLI can pick
// an exit code and a message without string matching.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryInclusion, "cyclic inclusion").
//		WithContext("file", path).
//		WithCause(transclude.ErrCyclicInclusion).
//		Build()
package errors
