package ipmapper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Middleware returns an http.Handler that classifies each request and then
// calls next exactly once.
func (m *Mapper) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.process(r.Context(), HTTPRequest(r), requestPath(r), func() {
			next.ServeHTTP(w, r)
		})
	})
}

// Process runs the header protocol on req and then calls next exactly once:
//
//  1. a target header already present on entry is removed and reported as a
//     spoofing attempt, whatever its value;
//  2. the client address is resolved and validated, and classification is
//     skipped when it is not a strict IPv4 literal;
//  3. when at least one block matches, the header is set to the matched names
//     joined by HeaderDelimiter.
//
// Failures, including a panic during classification, never prevent next from
// being called; they leave the header unset.
func (m *Mapper) Process(ctx context.Context, req Request, next func()) Result {
	return m.process(ctx, req, "", next)
}

func (m *Mapper) process(ctx context.Context, req Request, path string, next func()) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	result := m.evaluate(ctx, req, path)
	m.config.metrics.RecordClassification(string(result.Outcome))

	if next != nil {
		next()
	}

	return result
}

func (m *Mapper) evaluate(ctx context.Context, req Request, path string) (result Result) {
	headerName := m.config.headerName
	if headerName == "" || req == nil {
		result.Outcome = OutcomeUnconfigured
		return result
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			m.config.metrics.RecordSecurityEvent(securityEventClassificationPanic)
			m.config.logger.ErrorContext(ctx, "classification panicked; request forwarded unclassified",
				"event", securityEventClassificationPanic,
				"header", headerName,
				"path", path,
				"panic", fmt.Sprint(recovered),
			)
			result = Result{
				Spoofed: result.Spoofed,
				Outcome: OutcomeSkipped,
				Err:     fmt.Errorf("%w: %v", ErrClassificationPanic, recovered),
			}
		}
	}()

	if existing, ok := req.Header(headerName); ok {
		req.RemoveHeader(headerName)
		result.Spoofed = true
		m.config.metrics.RecordSecurityEvent(securityEventSpoofedHeader)
		m.config.logger.WarnContext(ctx, "classification header present before evaluation - possible spoofing attempt",
			"event", securityEventSpoofedHeader,
			"header", headerName,
			"value", existing,
			"path", path,
			"remote_addr", req.RemoteAddress(),
		)
	}

	registry := m.Registry()
	if registry.IsEmpty() {
		result.Outcome = OutcomeUnconfigured
		return result
	}

	candidate, source, ok := m.candidateAddress(req)
	result.Source = source

	addr, valid := parseIPv4(candidate)
	if !ok || !valid {
		m.config.metrics.RecordSecurityEvent(securityEventInvalidClientAddress)
		result.Outcome = OutcomeSkipped
		result.Err = &AddressError{
			Source:    source,
			Candidate: candidate,
			Err:       ErrInvalidClientAddress,
		}
		return result
	}
	result.ClientAddress = addr

	blocks := registry.ClassifyAddr(addr)
	if len(blocks) == 0 {
		result.Outcome = OutcomeUnmatched
		return result
	}

	for _, block := range blocks {
		m.config.metrics.RecordBlockMatch(block)
	}
	req.SetHeader(headerName, strings.Join(blocks, HeaderDelimiter))

	result.Blocks = blocks
	result.Outcome = OutcomeMatched
	return result
}

// candidateAddress applies ResolveClientAddress to req.
func (m *Mapper) candidateAddress(req Request) (candidate, source string, ok bool) {
	if m.config.forwardedHeader != "" {
		if value, present := req.Header(m.config.forwardedHeader); present {
			candidate, ok = ResolveClientAddress(value, true, "")
			return candidate, m.config.forwardedSourceName(), ok
		}
	}

	candidate, ok = ResolveClientAddress("", false, req.RemoteAddress())
	return candidate, SourceRemoteAddr, ok
}
