// Package common holds helpers shared by the tool packages: account
// resolution from request arguments, instrumented handler wrappers, and
// uniform error rendering for upstream failures.
package common
