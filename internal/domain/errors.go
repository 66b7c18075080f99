package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidPath signals a malformed collection path or document ID.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidDocument signals malformed document data or field updates.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidFilter signals a constraint list the store cannot apply.
	ErrInvalidFilter = errors.New("invalid filter combination")
)
