// Package httputil provides small helpers for writing JSON and CSV
// HTTP responses with a consistent error envelope.
package httputil
