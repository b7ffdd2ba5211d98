package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ProviderError
		want string
	}{
		{
			name: "bucket and key",
			err:  &ProviderError{Op: "Head", Provider: ProviderS3, Bucket: "futures", Key: "CL/2023/CLF3.dbn.zst", Err: ErrNotFound},
			want: "s3 Head: futures/CL/2023/CLF3.dbn.zst: object not found",
		},
		{
			name: "namespace marker",
			err:  &ProviderError{Op: "EnsureNamespace", Provider: ProviderS3, Bucket: "futures", Key: "CL/2023/", Err: ErrAccessDenied},
			want: "s3 EnsureNamespace: futures/CL/2023/: access denied",
		},
		{
			name: "local key",
			err:  &ProviderError{Op: "PutObject", Provider: ProviderFile, Key: "error_response.txt", Err: ErrAccessDenied},
			want: "file PutObject: error_response.txt: access denied",
		},
		{
			name: "bucket only",
			err:  &ProviderError{Op: "List", Provider: ProviderS3, Bucket: "futures", Err: ErrBucketNotFound},
			want: "s3 List: futures: bucket not found",
		},
		{
			name: "no location",
			err:  &ProviderError{Op: "New", Provider: ProviderS3, Err: errors.New("no region")},
			want: "s3 New: no region",
		},
		{
			name: "nil cause",
			err:  &ProviderError{Op: "List", Provider: ProviderFile},
			want: "file List: unknown error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestClassification(t *testing.T) {
	wrap := func(sentinel error) error {
		return fmt.Errorf("download CLF3: %w", &ProviderError{Op: "Head", Provider: ProviderS3, Err: sentinel})
	}

	tests := []struct {
		sentinel     error
		notFound     bool
		bucket       bool
		accessDenied bool
		transient    bool
	}{
		{sentinel: ErrNotFound, notFound: true},
		{sentinel: ErrBucketNotFound, bucket: true},
		{sentinel: ErrAccessDenied, accessDenied: true},
		{sentinel: ErrInvalidCredentials, accessDenied: true},
		{sentinel: ErrThrottled, transient: true},
		{sentinel: ErrProviderUnavailable, transient: true},
		{sentinel: errors.New("disk full")},
	}
	for _, tt := range tests {
		t.Run(tt.sentinel.Error(), func(t *testing.T) {
			err := wrap(tt.sentinel)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.bucket, IsBucketNotFound(err))
			assert.Equal(t, tt.accessDenied, IsAccessDenied(err))
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}
