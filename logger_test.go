package ipmapper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

type loggerTestContextKey string

type capturedLogEntry struct {
	ctx   context.Context
	level string
	msg   string
	attrs map[string]any
}

type capturedLogger struct {
	mu      sync.Mutex
	entries []capturedLogEntry
}

func (l *capturedLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "INFO", msg, args)
}

func (l *capturedLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "WARN", msg, args)
}

func (l *capturedLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "ERROR", msg, args)
}

func (l *capturedLogger) record(ctx context.Context, level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, capturedLogEntry{
		ctx:   ctx,
		level: level,
		msg:   msg,
		attrs: attrsToMap(args),
	})
}

func (l *capturedLogger) snapshot() []capturedLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]capturedLogEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

func (l *capturedLogger) entriesAt(level string) []capturedLogEntry {
	var entries []capturedLogEntry
	for _, entry := range l.snapshot() {
		if entry.level == level {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (l *capturedLogger) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func attrsToMap(args []any) map[string]any {
	attrs := make(map[string]any)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs[key] = args[i+1]
	}
	return attrs
}

func assertAttr(t *testing.T, attrs map[string]any, key string, want any) {
	t.Helper()

	got, ok := attrs[key]
	if !ok {
		t.Fatalf("missing %q attr", key)
	}

	if got != want {
		t.Fatalf("%s attr = %v, want %v", key, got, want)
	}
}

func TestLogging_SpoofedHeader_WarnsWithRequestContext(t *testing.T) {
	logger := &capturedLogger{}
	mapper := mustNewMapper(t,
		WithSource(scenarioEntries),
		WithHeaderName(testHeaderName),
		WithLogger(logger),
	)
	logger.reset()

	ctx := context.WithValue(context.Background(), loggerTestContextKey("trace_id"), "trace-123")
	req := (&http.Request{
		RemoteAddr: "192.168.40.1:8080",
		Header:     make(http.Header),
		URL:        &url.URL{Path: "/test/spoofed"},
	}).WithContext(ctx)
	req.Header.Set(testHeaderName, "spoof-attempt")

	mapper.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(httptest.NewRecorder(), req)

	entries := logger.entriesAt("WARN")
	if len(entries) != 1 {
		t.Fatalf("warn entries = %d, want 1", len(entries))
	}

	entry := entries[0]
	if got := entry.ctx.Value(loggerTestContextKey("trace_id")); got != "trace-123" {
		t.Fatalf("trace context value = %v, want %q", got, "trace-123")
	}

	assertAttr(t, entry.attrs, "event", securityEventSpoofedHeader)
	assertAttr(t, entry.attrs, "header", testHeaderName)
	assertAttr(t, entry.attrs, "value", "spoof-attempt")
	assertAttr(t, entry.attrs, "path", "/test/spoofed")
	assertAttr(t, entry.attrs, "remote_addr", "192.168.40.1")
}

func TestLogging_InvalidClientAddress_IsNotLogged(t *testing.T) {
	logger := &capturedLogger{}
	mapper := mustNewMapper(t,
		WithSource(scenarioEntries),
		WithHeaderName(testHeaderName),
		WithLogger(logger),
	)
	logger.reset()

	req := newTestRequest("not-an-address", "/")
	result := mapper.Process(context.Background(), HTTPRequest(req), nil)

	if !errors.Is(result.Err, ErrInvalidClientAddress) {
		t.Fatalf("Err = %v, want ErrInvalidClientAddress", result.Err)
	}
	if entries := logger.snapshot(); len(entries) != 0 {
		t.Fatalf("logged entries = %d, want 0", len(entries))
	}
}

func TestLogging_LoadWarnings(t *testing.T) {
	logger := &capturedLogger{}
	_ = mustLoad(t, Entries{
		{Name: "campus", Value: "192.168.40.0/24, 300.1.1.1"},
		{Name: "bad,name", Value: "10.0.0.0/8"},
		{Name: "hollow", Value: ","},
	}, WithLogger(logger))

	warnings := logger.entriesAt("WARN")
	type warningAttrs struct {
		event string
		block string
	}

	want := []warningAttrs{
		{event: securityEventMalformedRange, block: "campus"},
		{event: securityEventInvalidBlockName, block: "bad,name"},
		{event: securityEventMalformedRange, block: "hollow"},
		{event: securityEventMalformedRange, block: "hollow"},
		{event: securityEventEmptyBlock, block: "hollow"},
	}
	if len(warnings) != len(want) {
		t.Fatalf("warn entries = %d, want %d", len(warnings), len(want))
	}

	for i, w := range want {
		assertAttr(t, warnings[i].attrs, "event", w.event)
		assertAttr(t, warnings[i].attrs, "block", w.block)
		assertAttr(t, warnings[i].attrs, "source", "static")
	}
	assertAttr(t, warnings[0].attrs, "token", "300.1.1.1")

	infos := logger.entriesAt("INFO")
	if len(infos) != 1 {
		t.Fatalf("info entries = %d, want 1", len(infos))
	}
	assertAttr(t, infos[0].attrs, "blocks", 1)
	assertAttr(t, infos[0].attrs, "skipped", 5)
	assertAttr(t, infos[0].attrs, "order", "by_name")
}

func TestLogging_LoadFailure_LogsError(t *testing.T) {
	logger := &capturedLogger{}
	path := "/nonexistent/blocks.properties"

	_, err := Load(context.Background(), PropertiesFile(path), WithLogger(logger))
	if !errors.Is(err, ErrConfigLoad) {
		t.Fatalf("Load() error = %v, want ErrConfigLoad", err)
	}

	errorsLogged := logger.entriesAt("ERROR")
	if len(errorsLogged) != 1 {
		t.Fatalf("error entries = %d, want 1", len(errorsLogged))
	}
	assertAttr(t, errorsLogged[0].attrs, "source", PropertiesFile(path).Name())
}

func TestLogging_RetryWarnings(t *testing.T) {
	logger := &capturedLogger{}
	src := &countingSource{
		entries:  scenarioEntries,
		failures: 2,
		err:      errors.New("connection reset"),
	}

	_ = mustLoad(t, src, WithLogger(logger), WithLoadRetry(3, time.Millisecond))

	retries := logger.entriesAt("WARN")
	if len(retries) != 2 {
		t.Fatalf("retry warnings = %d, want 2", len(retries))
	}
	for _, entry := range retries {
		assertAttr(t, entry.attrs, "source", "counting")
	}
}

func TestLogging_NoSource_Warns(t *testing.T) {
	logger := &capturedLogger{}
	_ = mustNewMapper(t, WithHeaderName(testHeaderName), WithLogger(logger))

	if got := len(logger.entriesAt("WARN")); got != 1 {
		t.Fatalf("warn entries = %d, want 1", got)
	}
}
