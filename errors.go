package firedoc

import "github.com/kailas-cloud/firedoc/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrInvalidPath      = domain.ErrInvalidPath
	ErrInvalidDocument  = domain.ErrInvalidDocument
	ErrInvalidFilter    = domain.ErrInvalidFilter
)
