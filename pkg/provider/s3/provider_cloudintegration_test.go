//go:build cloudintegration

package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofutures/pkg/provider"
	"github.com/3leaps/gofutures/test/cloudtest"
)

func newMotoProvider(t *testing.T, ctx context.Context, bucket, prefix string) *Provider {
	t.Helper()
	p, err := New(ctx, Config{
		Bucket:          bucket,
		Prefix:          prefix,
		Region:          cloudtest.Region,
		Endpoint:        cloudtest.Endpoint,
		AccessKeyID:     cloudtest.TestAccessKeyID,
		SecretAccessKey: cloudtest.TestSecretAccessKey,
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	return p
}

func TestProvider_PutHeadList(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()
	bucket := cloudtest.CreateBucket(t, ctx)
	p := newMotoProvider(t, ctx, bucket, "futures")

	require.NoError(t, p.EnsureNamespace(ctx, "CL/2023"))
	require.NoError(t, p.EnsureNamespace(ctx, "CL/2023"))
	require.NoError(t, p.PutObject(ctx, "CL/2023/CLZ3.dbn.zst", strings.NewReader("dbn"), 3))

	meta, err := p.Head(ctx, "CL/2023/CLZ3.dbn.zst")
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.Size)
	assert.NotEmpty(t, meta.ETag)

	_, err = p.Head(ctx, "CL/2023/CLF4.dbn.zst")
	assert.True(t, provider.IsNotFound(err))

	res, err := p.List(ctx, provider.ListOptions{Prefix: "CL/"})
	require.NoError(t, err)
	require.Len(t, res.Objects, 1, "namespace markers are not objects")
	assert.Equal(t, "CL/2023/CLZ3.dbn.zst", res.Objects[0].Key)

	assert.Equal(t, []string{
		"futures/CL/2023/",
		"futures/CL/2023/CLZ3.dbn.zst",
	}, cloudtest.Keys(t, ctx, bucket, "futures/"))
}

func TestProvider_MissingBucket(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()
	p := newMotoProvider(t, ctx, "gofutures-no-such-bucket", "")

	_, err := p.List(ctx, provider.ListOptions{})
	require.Error(t, err)
	assert.True(t, provider.IsBucketNotFound(err), "got %v", err)
}
