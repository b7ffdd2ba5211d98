package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/3leaps/gofutures/pkg/provider"
)

// URI parsing errors
var (
	// ErrInvalidURI indicates the URI could not be parsed.
	ErrInvalidURI = errors.New("invalid URI")

	// ErrUnsupportedProvider indicates the URI scheme is not supported.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingBucket indicates the URI is missing a bucket name.
	ErrMissingBucket = errors.New("missing bucket name")
)

// StorageURI is a parsed storage location.
//
// Example URIs:
//   - ./data
//   - file:///srv/futures
//   - s3://bucket
//   - s3://bucket/futures/
type StorageURI struct {
	// Provider is "file" or "s3".
	Provider string

	// Path is the base directory of a file location.
	Path string

	// Bucket and Prefix locate an s3 location. Prefix has no leading or
	// trailing slash.
	Bucket string
	Prefix string
}

// String returns the URI in canonical form.
func (u *StorageURI) String() string {
	if u.Provider == provider.ProviderS3.String() {
		if u.Prefix == "" {
			return fmt.Sprintf("s3://%s/", u.Bucket)
		}
		return fmt.Sprintf("s3://%s/%s/", u.Bucket, u.Prefix)
	}
	return "file://" + filepath.ToSlash(u.Path)
}

// ParseStorageURI parses a storage location. Strings without a scheme are
// local paths.
//
// Supported formats:
//   - path/to/dir
//   - file:path/to/dir, file:///abs/dir
//   - s3://bucket, s3://bucket/prefix/
func ParseStorageURI(raw string) (*StorageURI, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty URI", ErrInvalidURI)
	}

	schemeEnd := strings.Index(raw, "://")
	if schemeEnd == -1 {
		if strings.HasPrefix(raw, "file:") {
			raw = strings.TrimPrefix(raw, "file:")
			if raw == "" {
				return nil, fmt.Errorf("%w: empty path", ErrInvalidURI)
			}
		}
		return &StorageURI{Provider: provider.ProviderFile.String(), Path: filepath.Clean(raw)}, nil
	}

	scheme := strings.ToLower(raw[:schemeEnd])
	remainder := raw[schemeEnd+3:]

	switch scheme {
	case "file":
		if remainder == "" {
			return nil, fmt.Errorf("%w: empty path in %s", ErrInvalidURI, raw)
		}
		return &StorageURI{Provider: provider.ProviderFile.String(), Path: filepath.Clean(filepath.FromSlash(remainder))}, nil
	case "s3":
	default:
		return nil, fmt.Errorf("%w: %s (supported: file, s3)", ErrUnsupportedProvider, scheme)
	}

	if remainder == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, raw)
	}

	bucket, prefix, _ := strings.Cut(remainder, "/")
	if bucket == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, raw)
	}
	if _, err := url.Parse("s3://" + bucket + "/"); err != nil {
		return nil, fmt.Errorf("%w: invalid bucket name %q", ErrInvalidURI, bucket)
	}
	if strings.ContainsAny(prefix, "*?[{") {
		return nil, fmt.Errorf("%w: storage prefix must not contain glob characters: %q", ErrInvalidURI, prefix)
	}

	return &StorageURI{
		Provider: provider.ProviderS3.String(),
		Bucket:   bucket,
		Prefix:   strings.Trim(prefix, "/"),
	}, nil
}
