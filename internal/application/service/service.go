// Package service implements the chain engine's application services:
// graph resolution, version management, transition evaluation, progress
// derivation, role administration and batch execution. Services are stateless;
// durable state lives behind the port interfaces and every family-scoped
// mutation runs locked and transactional.
package service

import "github.com/google/uuid"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// newID mints an opaque identifier for a new entity.
func newID() string {
	return uuid.NewString()
}
