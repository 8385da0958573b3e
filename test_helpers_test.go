package ipmapper

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const testHeaderName = "Some-Header"

// scenarioEntries is the registry used by the end-to-end scenarios. Declared
// order differs from name order on purpose.
var scenarioEntries = Entries{
	{Name: "campus", Value: "192.168.40.0/24"},
	{Name: "annex", Value: "192.168.40.0/28"},
	{Name: "housing", Value: "192.168.38.0/24"},
}

func mustNewMapper(t *testing.T, opts ...Option) *Mapper {
	t.Helper()

	mapper, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return mapper
}

func mustLoad(t *testing.T, src Source, opts ...Option) *Registry {
	t.Helper()

	registry, err := Load(context.Background(), src, opts...)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	return registry
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	return path
}

func newTestRequest(remoteAddr, path string) *http.Request {
	req := &http.Request{
		RemoteAddr: remoteAddr,
		Header:     make(http.Header),
	}

	if path != "" {
		req.URL = &url.URL{Path: path}
	}

	return req
}

// fakeRequest is a framework-agnostic Request that records every mutation.
type fakeRequest struct {
	headers    map[string]string
	remoteAddr string
	removed    []string
	set        []string
}

func newFakeRequest(remoteAddr string, headers map[string]string) *fakeRequest {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	return &fakeRequest{headers: h, remoteAddr: remoteAddr}
}

func (f *fakeRequest) Header(name string) (string, bool) {
	v, ok := f.headers[name]
	return v, ok
}

func (f *fakeRequest) RemoteAddress() string {
	return f.remoteAddr
}

func (f *fakeRequest) RemoveHeader(name string) {
	f.removed = append(f.removed, name)
	delete(f.headers, name)
}

func (f *fakeRequest) SetHeader(name, value string) {
	f.set = append(f.set, name)
	f.headers[name] = value
}

// countingSource counts reads. The first failures reads fail with err, as
// does every read while failing is set.
type countingSource struct {
	mu       sync.Mutex
	entries  []Entry
	failures int
	failing  bool
	err      error
	calls    int
}

func (s *countingSource) Name() string {
	return "counting"
}

func (s *countingSource) Entries(context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.failures || s.failing {
		return nil, s.err
	}
	return s.entries, nil
}

func (s *countingSource) setEntries(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
}

func (s *countingSource) setFailing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = err != nil
	s.err = err
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
