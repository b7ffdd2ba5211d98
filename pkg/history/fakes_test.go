package history

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/3leaps/gofutures/pkg/marketdata"
	"github.com/3leaps/gofutures/pkg/provider"
)

type fakeClient struct {
	costs    map[string]float64
	payloads map[string]string
	fail     map[string]error

	// unknownLength makes GetRange report -1 as the body length.
	unknownLength bool

	costCalls  atomic.Int64
	rangeCalls atomic.Int64
}

func (c *fakeClient) GetCost(ctx context.Context, req marketdata.Request) (float64, error) {
	c.costCalls.Add(1)
	if err := c.fail[req.Symbols]; err != nil {
		return 0, err
	}
	return c.costs[req.Symbols], nil
}

func (c *fakeClient) GetRange(ctx context.Context, req marketdata.Request) (io.ReadCloser, int64, error) {
	c.rangeCalls.Add(1)
	if err := c.fail[req.Symbols]; err != nil {
		return nil, 0, err
	}
	payload := c.payloads[req.Symbols]
	if payload == "" {
		payload = "dbn:" + req.Symbols
	}
	size := int64(len(payload))
	if c.unknownLength {
		size = -1
	}
	return io.NopCloser(strings.NewReader(payload)), size, nil
}

type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	namespaces []string
	nsErr      error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

var _ provider.Store = (*memStore)(nil)

func (s *memStore) List(ctx context.Context, opts provider.ListOptions) (*provider.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	res := &provider.ListResult{}
	for _, k := range keys {
		res.Objects = append(res.Objects, provider.ObjectSummary{Key: k, Size: int64(len(s.objects[k]))})
	}
	return res, nil
}

func (s *memStore) Head(ctx context.Context, key string) (*provider.ObjectMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, &provider.ProviderError{Op: "Head", Provider: "mem", Key: key, Err: provider.ErrNotFound}
	}
	return &provider.ObjectMeta{ObjectSummary: provider.ObjectSummary{Key: key, Size: int64(len(data))}}, nil
}

func (s *memStore) PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if contentLength >= 0 && int64(len(data)) != contentLength {
		return errors.New("content length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = bytes.Clone(data)
	return nil
}

func (s *memStore) EnsureNamespace(ctx context.Context, name string) error {
	if s.nsErr != nil {
		return s.nsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces = append(s.namespaces, name)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return string(data), ok
}
