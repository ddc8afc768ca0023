package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityFatal,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithCause sets the underlying error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// WithPath is shorthand for WithContext("path", path).
func (b *ErrorBuilder) WithPath(path string) *ErrorBuilder {
	return b.WithContext("path", path)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for the migration error taxonomy.

// IOError creates a filesystem read/copy/delete error.
func IOError(err error, message string) *ErrorBuilder {
	return WrapError(err, CategoryIO, message)
}

// ParseError creates a malformed-document error.
func ParseError(err error, message string) *ErrorBuilder {
	return WrapError(err, CategoryParse, message)
}

// WriteError creates a destination write error.
func WriteError(err error, message string) *ErrorBuilder {
	return WrapError(err, CategoryWrite, message)
}

// DetectionError creates an unrecognized or ambiguous source tree error.
func DetectionError(message string) *ErrorBuilder {
	return NewError(CategoryDetection, message)
}

// ConfigError creates a tool configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message)
}

// ValidationError creates an invalid input error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message)
}
