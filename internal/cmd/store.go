package cmd

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	gfconfig "github.com/fulmenhq/gofulmen/config"

	"github.com/3leaps/gofutures/internal/config"
	"github.com/3leaps/gofutures/pkg/manifest"
	"github.com/3leaps/gofutures/pkg/provider"
	"github.com/3leaps/gofutures/pkg/provider/file"
	"github.com/3leaps/gofutures/pkg/provider/s3"
)

// storageOptions locates the store contract data and reports go to.
type storageOptions struct {
	// URI is a path, file:// URI or s3://bucket/prefix. Empty means
	// defaultStorageDir.
	URI string

	Region         string
	Endpoint       string
	Profile        string
	ForcePathStyle bool
}

func storageFromConfig(c config.StorageConfig) storageOptions {
	return storageOptions{
		URI:            c.URI,
		Region:         c.Region,
		Endpoint:       c.Endpoint,
		Profile:        c.Profile,
		ForcePathStyle: c.ForcePathStyle,
	}
}

func storageFromManifest(c manifest.StorageConfig) storageOptions {
	opts := storageOptions{
		Region:         c.Region,
		Endpoint:       c.Endpoint,
		Profile:        c.Profile,
		ForcePathStyle: c.ForcePathStyle,
	}
	if c.Provider == provider.ProviderS3.String() {
		opts.URI = "s3://" + path.Join(c.Bucket, c.Prefix)
	} else {
		opts.URI = c.Path
	}
	return opts
}

// defaultStorageDir is the per-user data directory for downloads.
func defaultStorageDir() string {
	return filepath.Join(gfconfig.GetAppDataDir(ServiceName), "contracts")
}

// openStore opens the store described by opts.
func openStore(ctx context.Context, opts storageOptions) (provider.Store, *StorageURI, error) {
	raw := opts.URI
	if raw == "" {
		raw = defaultStorageDir()
	}
	loc, err := ParseStorageURI(raw)
	if err != nil {
		return nil, nil, err
	}

	switch loc.Provider {
	case provider.ProviderS3.String():
		p, err := s3.New(ctx, s3.Config{
			Bucket:   loc.Bucket,
			Prefix:   loc.Prefix,
			Region:   opts.Region,
			Endpoint: opts.Endpoint,
			Profile:  opts.Profile,
			// S3-compatible endpoints (MinIO, moto) need path-style URLs.
			ForcePathStyle: opts.ForcePathStyle || opts.Endpoint != "",
		})
		if err != nil {
			return nil, nil, err
		}
		return p, loc, nil
	case provider.ProviderFile.String():
		p, err := file.New(file.Config{BaseDir: loc.Path})
		if err != nil {
			return nil, nil, err
		}
		return p, loc, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, loc.Provider)
	}
}
