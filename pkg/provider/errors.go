package provider

import (
	"errors"
	"strings"
)

// Store failures are reduced to these sentinels so the batch layer can tell
// "not downloaded yet" apart from problems that should stop a run.
var (
	ErrNotFound            = errors.New("object not found")
	ErrBucketNotFound      = errors.New("bucket not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrThrottled           = errors.New("request throttled")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderError records the store operation and location that failed.
// Err is usually one of the sentinels above.
type ProviderError struct {
	Op       string
	Provider ProviderType

	// Bucket is empty for local stores.
	Bucket string
	Key    string

	Err error
}

// Error renders "<provider> <op>: <bucket>/<key>: <err>", omitting empty
// location parts.
func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider.String())
	b.WriteByte(' ')
	b.WriteString(e.Op)
	if loc := e.location(); loc != "" {
		b.WriteString(": ")
		b.WriteString(loc)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("unknown error")
	}
	return b.String()
}

func (e *ProviderError) location() string {
	switch {
	case e.Bucket == "":
		return e.Key
	case e.Key == "":
		return e.Bucket
	}
	return e.Bucket + "/" + e.Key
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports a missing object. Downloads treat it as "fetch me".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBucketNotFound reports a missing bucket.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied reports a permission or authentication failure.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrInvalidCredentials)
}

// IsTransient reports throttling or an outage, where the same request may
// succeed later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrProviderUnavailable)
}
