// Package merr defines the error kinds callers match against with errors.Is.
package merr

import "errors"

// Sentinel kinds, per the error-handling design: not type names, just
// wrapped causes that callers can test for.
var (
	ErrNotConfigured      = errors.New("mementor: not configured")
	ErrInputNotFound      = errors.New("mementor: input not found")
	ErrSchemaIncompatible = errors.New("mementor: schema incompatible")
	ErrParse              = errors.New("mementor: parse error")
	ErrEmbeddingFailure   = errors.New("mementor: embedding failure")
	ErrStorageConflict    = errors.New("mementor: storage conflict")
	ErrIntegrityViolation = errors.New("mementor: integrity violation")
)
