package provider

import (
	"context"
	"io"
)

// Optional provider capability interfaces, detected by type assertion.

// ObjectPutter can create or overwrite objects.
//
// contentLength may be -1 when the body length is unknown; implementations
// that need a length must buffer.
type ObjectPutter interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error
}

// NamespaceCreator can create a logical bucket (directory or key prefix).
//
// EnsureNamespace is idempotent: an existing namespace is not an error.
type NamespaceCreator interface {
	EnsureNamespace(ctx context.Context, name string) error
}

// Store is a provider that can hold batch output.
type Store interface {
	Provider
	ObjectPutter
	NamespaceCreator
}
