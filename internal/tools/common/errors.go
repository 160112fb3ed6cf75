package common

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/weekrev/weekrev/internal/resilience"
	"github.com/weekrev/weekrev/internal/upstream"
)

// ErrorResult turns an upstream failure into a tool error result with a
// message the caller can act on.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	var authErr *upstream.AuthError
	if errors.As(err, &authErr) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Authentication with %s failed for account %s: %s",
			authErr.Service, authErr.Account, authErr.Reason))
	}

	var unavailErr *resilience.ServiceUnavailableError
	if errors.As(err, &unavailErr) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"The %s service is temporarily unavailable and no cached data is usable. Please try again in a few minutes.",
			unavailErr.Service))
	}

	var rateErr *upstream.RateLimitError
	if errors.As(err, &rateErr) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"The %s service is rate limiting requests. Please try again shortly.",
			rateErr.Service))
	}

	var notFoundErr *upstream.NotFoundError
	if errors.As(err, &notFoundErr) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"%s: the requested %s resource was not found", action, notFoundErr.Service))
	}

	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}
