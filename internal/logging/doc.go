// Package logging provides structured logging utilities for the weekrev application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (account anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.fetch")
//	logger.Info("events fetched",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("account operation",
//	    logging.AccountHash(email))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Account emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
