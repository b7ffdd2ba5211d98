package history

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// DefaultSpoolMaxMemoryBytes is the largest download buffered in memory
// before storing. Larger or unknown-length payloads are spooled to a temp
// file.
const DefaultSpoolMaxMemoryBytes int64 = 16 << 20 // 16 MiB

// spooledBody is a fully read download with a known size and a seekable
// reader, so storage PUTs can be retried by the SDK.
type spooledBody struct {
	reader  io.ReadSeeker
	size    int64
	cleanup func() error
}

func (b *spooledBody) Reader() io.ReadSeeker { return b.reader }

func (b *spooledBody) Size() int64 { return b.size }

func (b *spooledBody) Close() error {
	if b.cleanup == nil {
		return nil
	}
	return b.cleanup()
}

// newSpooledBody drains and closes src. size is the advertised length, -1
// when unknown.
func newSpooledBody(src io.ReadCloser, size int64, maxMemoryBytes int64) (*spooledBody, error) {
	defer func() { _ = src.Close() }()
	if maxMemoryBytes <= 0 {
		maxMemoryBytes = DefaultSpoolMaxMemoryBytes
	}

	if size >= 0 && size <= maxMemoryBytes {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		return &spooledBody{reader: bytes.NewReader(data), size: int64(len(data))}, nil
	}

	f, err := os.CreateTemp("", "gofutures-download-*")
	if err != nil {
		return nil, err
	}
	n, err := io.Copy(f, src)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}

	return &spooledBody{
		reader: f,
		size:   n,
		cleanup: func() error {
			name := f.Name()
			closeErr := f.Close()
			rmErr := os.Remove(name)
			if closeErr != nil {
				return fmt.Errorf("close temp file: %w", closeErr)
			}
			if rmErr != nil {
				return fmt.Errorf("remove temp file: %w", rmErr)
			}
			return nil
		},
	}, nil
}
