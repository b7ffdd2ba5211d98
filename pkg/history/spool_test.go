package history

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpooledBody_InMemory_IsSeekable(t *testing.T) {
	src := io.NopCloser(bytes.NewReader([]byte("hello")))
	b, err := newSpooledBody(src, 5, 1024)
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close()) }()

	_, isFile := b.Reader().(*os.File)
	assert.False(t, isFile)
	assert.Equal(t, int64(5), b.Size())

	out1, err := io.ReadAll(b.Reader())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out1))

	_, err = b.Reader().Seek(0, io.SeekStart)
	require.NoError(t, err)
	out2, err := io.ReadAll(b.Reader())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out2))
}

func TestNewSpooledBody_UnknownLength_SpoolsToFileAndCleansUp(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 1024)
	src := io.NopCloser(bytes.NewReader(payload))

	b, err := newSpooledBody(src, -1, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), b.Size())

	file, ok := b.Reader().(*os.File)
	require.True(t, ok)
	name := file.Name()

	out, err := io.ReadAll(b.Reader())
	require.NoError(t, err)
	assert.Len(t, out, len(payload))

	require.NoError(t, b.Close())
	_, statErr := os.Stat(name)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewSpooledBody_LargeKnownLength_Spools(t *testing.T) {
	payload := bytes.Repeat([]byte("b"), 64)
	b, err := newSpooledBody(io.NopCloser(bytes.NewReader(payload)), 64, 16)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	_, isFile := b.Reader().(*os.File)
	assert.True(t, isFile)
	assert.Equal(t, int64(64), b.Size())
}
