package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/firedoc/internal/domain"
)

// MaxIDBytes is the maximum document or collection ID size.
const MaxIDBytes = 1500

var reservedID = regexp.MustCompile(`^__.*__$`)

// Document is a stored document (immutable value object).
type Document struct {
	collection string
	id         string
	data       map[string]any
}

// New validates and creates a Document.
func New(collection, id string, data map[string]any) (Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return Document{}, err
	}
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return Document{collection: collection, id: id, data: cloneMap(data)}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(collection, id string, data map[string]any) Document {
	return Document{collection: collection, id: id, data: data}
}

// Collection returns the full collection path, e.g. "packs/base/units".
func (d *Document) Collection() string { return d.collection }

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Path returns the full document path.
func (d *Document) Path() string { return d.collection + "/" + d.id }

// Data returns the document fields.
func (d *Document) Data() map[string]any { return d.data }

// ValidateID checks a single document or collection ID.
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("id is required: %w", domain.ErrInvalidPath)
	case len(id) > MaxIDBytes:
		return fmt.Errorf("id too long (max %d bytes): %w", MaxIDBytes, domain.ErrInvalidPath)
	case strings.Contains(id, "/"):
		return fmt.Errorf("id %q must not contain '/': %w", id, domain.ErrInvalidPath)
	case id == "." || id == "..":
		return fmt.Errorf("id %q is not allowed: %w", id, domain.ErrInvalidPath)
	case reservedID.MatchString(id):
		return fmt.Errorf("id %q is reserved: %w", id, domain.ErrInvalidPath)
	}
	return nil
}

// ValidateCollectionPath checks a collection path: an odd number of
// slash-separated IDs (collection/doc/collection/...).
func ValidateCollectionPath(path string) error {
	if path == "" {
		return fmt.Errorf("collection path is required: %w", domain.ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 == 0 {
		return fmt.Errorf("collection path %q points to a document: %w", path, domain.ErrInvalidPath)
	}
	for _, seg := range segments {
		if err := ValidateID(seg); err != nil {
			return fmt.Errorf("collection path %q: %w", path, err)
		}
	}
	return nil
}

// GroupID returns the last segment of a collection path.
// Collection group queries match every collection with this ID.
func GroupID(collectionPath string) string {
	if i := strings.LastIndexByte(collectionPath, '/'); i >= 0 {
		return collectionPath[i+1:]
	}
	return collectionPath
}

// Parent returns the document path that owns a subcollection, or "" for root collections.
func Parent(collectionPath string) string {
	if i := strings.LastIndexByte(collectionPath, '/'); i >= 0 {
		return collectionPath[:i]
	}
	return ""
}

func cloneMap(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
