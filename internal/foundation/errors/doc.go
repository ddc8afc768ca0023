// Package errors provides the classified error type used across sitemigrator.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category (io, parse, write, detection, ...), a severity, a context map and the
// underlying cause. Callers branch on the category instead of matching strings.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryIO, "copy file").
//		WithContext("path", rel).
//		Build()
package errors
