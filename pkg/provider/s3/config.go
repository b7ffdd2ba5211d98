// Package s3 stores contract data and batch reports in AWS S3 or an
// S3-compatible object store such as MinIO or moto.
package s3

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	// DefaultMaxKeys is the List page size when Config.MaxKeys is zero.
	DefaultMaxKeys = 1000

	// MaxAllowedKeys is the largest page ListObjectsV2 returns.
	MaxAllowedKeys = 1000

	// DefaultAWSRegion applies to AWS endpoints when nothing else sets a region.
	DefaultAWSRegion = "us-east-1"
)

// Config locates the bucket and key prefix a store writes under.
//
// Credentials come from the AWS SDK default chain (environment, shared
// files, instance or task roles) unless AccessKeyID and SecretAccessKey are
// both set. Profile picks a shared-config profile.
type Config struct {
	Bucket string

	// Prefix roots every key: with "futures", CL/2023/CLF3.dbn.zst is
	// stored at futures/CL/2023/CLF3.dbn.zst.
	Prefix string

	// Region defaults to us-east-1 for AWS when config, environment and
	// profile leave it empty. Custom endpoints get no default.
	Region string

	// Endpoint targets an S3-compatible server, e.g. http://localhost:5555.
	Endpoint string

	Profile         string
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle puts the bucket in the URL path; local servers need it.
	ForcePathStyle bool

	// MaxKeys is the List page size. Larger values are clamped to
	// MaxAllowedKeys.
	MaxKeys int
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Bucket) == "":
		return &ConfigError{Field: "Bucket", Message: "bucket name is required"}
	case strings.HasPrefix(c.Prefix, "/"):
		return &ConfigError{Field: "Prefix", Message: "prefix must be relative to the bucket"}
	case (c.AccessKeyID == "") != (c.SecretAccessKey == ""):
		return &ConfigError{Field: "AccessKeyID/SecretAccessKey", Message: "access key ID and secret access key must be set together"}
	case c.MaxKeys < 0:
		return &ConfigError{Field: "MaxKeys", Message: "must not be negative"}
	}
	return nil
}

// keyPrefix is Prefix with surrounding slashes removed and one trailing
// slash added, or "" for the bucket root.
func (c *Config) keyPrefix() string {
	prefix := strings.Trim(strings.TrimSpace(c.Prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (c *Config) pageSize() int {
	if c.MaxKeys <= 0 {
		return DefaultMaxKeys
	}
	return min(c.MaxKeys, MaxAllowedKeys)
}

func (c *Config) clientOptions() []func(*s3.Options) {
	return []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = c.ForcePathStyle
			if c.Endpoint != "" {
				o.BaseEndpoint = aws.String(c.Endpoint)
			}
		},
	}
}

// resolveRegion picks the region after SDK loading. sdkRegion already
// reflects Config.Region, AWS_REGION or the profile; only AWS endpoints
// fall back to DefaultAWSRegion.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" || endpoint != "" {
		return sdkRegion
	}
	return DefaultAWSRegion
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "s3 config: " + e.Field + ": " + e.Message
}
