package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStorageURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    *StorageURI
		wantErr error
	}{
		{
			name: "relative path",
			uri:  "data",
			want: &StorageURI{Provider: "file", Path: "data"},
		},
		{
			name: "path is cleaned",
			uri:  "./data/futures/",
			want: &StorageURI{Provider: "file", Path: filepath.Clean("data/futures")},
		},
		{
			name: "file prefix",
			uri:  "file:out/data",
			want: &StorageURI{Provider: "file", Path: filepath.Clean("out/data")},
		},
		{
			name: "file URI",
			uri:  "file:///srv/futures",
			want: &StorageURI{Provider: "file", Path: filepath.Clean("/srv/futures")},
		},
		{
			name: "simple bucket",
			uri:  "s3://my-bucket",
			want: &StorageURI{Provider: "s3", Bucket: "my-bucket"},
		},
		{
			name: "bucket with trailing slash",
			uri:  "s3://my-bucket/",
			want: &StorageURI{Provider: "s3", Bucket: "my-bucket"},
		},
		{
			name: "bucket with prefix",
			uri:  "s3://my-bucket/market/futures/",
			want: &StorageURI{Provider: "s3", Bucket: "my-bucket", Prefix: "market/futures"},
		},
		{
			name: "uppercase scheme",
			uri:  "S3://my-bucket/raw",
			want: &StorageURI{Provider: "s3", Bucket: "my-bucket", Prefix: "raw"},
		},
		{name: "empty", uri: "  ", wantErr: ErrInvalidURI},
		{name: "empty file path", uri: "file:", wantErr: ErrInvalidURI},
		{name: "unsupported scheme", uri: "gs://my-bucket/data", wantErr: ErrUnsupportedProvider},
		{name: "missing bucket", uri: "s3://", wantErr: ErrMissingBucket},
		{name: "empty bucket", uri: "s3:///prefix", wantErr: ErrMissingBucket},
		{name: "glob prefix", uri: "s3://my-bucket/CL/*", wantErr: ErrInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStorageURI(tt.uri)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorageURI_String(t *testing.T) {
	tests := []struct {
		uri  *StorageURI
		want string
	}{
		{&StorageURI{Provider: "s3", Bucket: "b"}, "s3://b/"},
		{&StorageURI{Provider: "s3", Bucket: "b", Prefix: "futures"}, "s3://b/futures/"},
		{&StorageURI{Provider: "file", Path: "/srv/futures"}, "file:///srv/futures"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.uri.String())
		})
	}
}

func TestParseStorageURI_RoundTrip(t *testing.T) {
	for _, raw := range []string{"s3://b/", "s3://b/market/futures/"} {
		u, err := ParseStorageURI(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, u.String())
	}
}
