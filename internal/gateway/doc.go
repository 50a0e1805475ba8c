// Package gateway is the typed HTTP client for the scheduler's resource
// endpoints.
//
// Every operation returns a discriminated result instead of an error: network
// failures, non-success status codes, and malformed response bodies are all
// normalized into OK=false with a human-readable message, so callers branch on
// the discriminator rather than catching failures. Nothing here panics or
// propagates transport errors past the package boundary.
package gateway
