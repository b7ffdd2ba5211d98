package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofutures/pkg/provider"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return p
}

func TestNew_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{BaseDir: "  "})
	assert.Error(t, err)
}

func TestEnsureNamespace_Idempotent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.EnsureNamespace(ctx, "CL/2023"))
	require.NoError(t, p.EnsureNamespace(ctx, "CL/2023"))

	st, err := os.Stat(filepath.Join(p.BaseDir(), "CL", "2023"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestEnsureNamespace_RejectsTraversal(t *testing.T) {
	p := newTestProvider(t)
	err := p.EnsureNamespace(context.Background(), "../outside")

	var pe *provider.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "EnsureNamespace", pe.Op)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(p.BaseDir()), "outside"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFullPath(t *testing.T) {
	p := newTestProvider(t)

	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "CL/2023/CLF3.dbn.zst", want: filepath.Join(p.BaseDir(), "CL", "2023", "CLF3.dbn.zst")},
		{key: "/ES/2023", want: filepath.Join(p.BaseDir(), "ES", "2023")},
		{key: "", want: p.BaseDir()},
		{key: "CL/../ES", want: filepath.Join(p.BaseDir(), "ES")},
		{key: "..", wantErr: true},
		{key: "../outside", wantErr: true},
		{key: "CL/../../outside", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := p.fullPath(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPutObject_RejectsTraversal(t *testing.T) {
	p := newTestProvider(t)
	err := p.PutObject(context.Background(), "../escape.txt", strings.NewReader("x"), 1)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(p.BaseDir()), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPutObject_LengthMismatch(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	err := p.PutObject(ctx, "ES/2023/ESH3.dbn.zst", strings.NewReader("short"), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrote 5 of 10 bytes")

	_, err = p.Head(ctx, "ES/2023/ESH3.dbn.zst")
	assert.True(t, provider.IsNotFound(err), "partial body must not be committed")
}

func TestPutObjectAndHead(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.PutObject(ctx, "ES/2023/ESH3.dbn.zst", strings.NewReader("payload"), 7))

	meta, err := p.Head(ctx, "ES/2023/ESH3.dbn.zst")
	require.NoError(t, err)
	assert.Equal(t, "ES/2023/ESH3.dbn.zst", meta.Key)
	assert.Equal(t, int64(7), meta.Size)

	data, err := os.ReadFile(filepath.Join(p.BaseDir(), "ES", "2023", "ESH3.dbn.zst"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestPutObject_Overwrites(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.PutObject(ctx, "error_response.txt", strings.NewReader("first"), -1))
	require.NoError(t, p.PutObject(ctx, "error_response.txt", strings.NewReader("second"), -1))

	data, err := os.ReadFile(filepath.Join(p.BaseDir(), "error_response.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestHead_NotFound(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.Head(ctx, "missing.dbn.zst")
	assert.True(t, provider.IsNotFound(err))

	require.NoError(t, p.EnsureNamespace(ctx, "CL"))
	_, err = p.Head(ctx, "CL")
	assert.True(t, provider.IsNotFound(err), "directories are not objects")
}

func TestList_PrefixAndPagination(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	for _, k := range []string{"CL/2023/CLF3.dbn.zst", "CL/2023/CLG3.dbn.zst", "CL/2024/CLF4.dbn.zst", "ES/2023/ESH3.dbn.zst"} {
		require.NoError(t, p.PutObject(ctx, k, strings.NewReader("x"), 1))
	}

	res, err := p.List(ctx, provider.ListOptions{Prefix: "CL/", MaxKeys: 2})
	require.NoError(t, err)
	require.Len(t, res.Objects, 2)
	assert.True(t, res.IsTruncated)
	assert.Equal(t, "CL/2023/CLF3.dbn.zst", res.Objects[0].Key)

	res, err = p.List(ctx, provider.ListOptions{Prefix: "CL/", MaxKeys: 2, ContinuationToken: res.ContinuationToken})
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	assert.Equal(t, "CL/2024/CLF4.dbn.zst", res.Objects[0].Key)
	assert.False(t, res.IsTruncated)

	res, err = p.List(ctx, provider.ListOptions{Prefix: "CL/2023/CLG"})
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	assert.Equal(t, "CL/2023/CLG3.dbn.zst", res.Objects[0].Key)

	all, err := provider.ListAll(ctx, p, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestList_MissingPrefix(t *testing.T) {
	p := newTestProvider(t)
	res, err := p.List(context.Background(), provider.ListOptions{Prefix: "NQ/"})
	require.NoError(t, err)
	assert.Empty(t, res.Objects)
}
