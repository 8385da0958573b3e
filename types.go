package ipmapper

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var (
	ErrConfigLoad = errors.New("mapping configuration could not be loaded")

	ErrSourceFormat = errors.New("mapping configuration is malformed")

	ErrMalformedRange = errors.New("malformed range token")

	ErrInvalidBlockName = errors.New("invalid block name")

	ErrEmptyBlock = errors.New("block has no valid ranges")

	ErrInvalidClientAddress = errors.New("invalid or missing client IPv4 address")

	ErrClassificationPanic = errors.New("classification panicked")
)

// ConfigLoadError reports that a Source could not be read or parsed as a
// whole. The registry produced alongside it is empty.
type ConfigLoadError struct {
	Source string
	Err    error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("%v (source=%q): %v", ErrConfigLoad, e.Source, e.Err)
}

func (e *ConfigLoadError) Unwrap() []error {
	return []error{ErrConfigLoad, e.Err}
}

// RangeError reports a single range token that was skipped while loading a
// block.
type RangeError struct {
	Block string
	Token string
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("block %q: %v (token=%q)", e.Block, e.Err, e.Token)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// BlockError reports a block that was skipped entirely while loading.
type BlockError struct {
	Block string
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %q: %v", e.Block, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// AddressError reports why no client address could be classified for a
// request.
type AddressError struct {
	Source    string
	Candidate string
	Err       error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s: %v (candidate=%q)", e.Source, e.Err, e.Candidate)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

func (e *AddressError) SourceName() string {
	return e.Source
}

// Outcome describes what happened to a request's classification header.
type Outcome string

const (
	// OutcomeMatched means at least one block matched and the header was set.
	OutcomeMatched Outcome = "matched"
	// OutcomeUnmatched means the address was valid but no block contains it.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeSkipped means classification was skipped for this request
	// because no valid client address was available or classification failed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeUnconfigured means no header name or no rules are configured.
	OutcomeUnconfigured Outcome = "unconfigured"
)

// Result describes the processing of a single request.
type Result struct {
	// ClientAddress is the validated address that was classified. It is the
	// zero Addr when classification was skipped.
	ClientAddress netip.Addr

	// Source names where the candidate address came from (for example
	// "x_forwarded_for" or "remote_addr").
	Source string

	// Blocks holds the matched block names in registry order.
	Blocks []string

	// Spoofed reports that the target header was already present on entry
	// and was removed.
	Spoofed bool

	// Outcome summarizes what happened to the header.
	Outcome Outcome

	// Err explains a skipped classification; nil otherwise.
	Err error
}

// Matched reports whether the header was set for the request.
func (r Result) Matched() bool {
	return r.Outcome == OutcomeMatched && len(r.Blocks) > 0
}

// HeaderValue returns the value emitted for the target header, or "" when the
// header was left unset.
func (r Result) HeaderValue() string {
	if !r.Matched() {
		return ""
	}
	return strings.Join(r.Blocks, HeaderDelimiter)
}

// NormalizeSourceName converts a header name into the snake_case form used for
// source labels, for example "X-Forwarded-For" becomes "x_forwarded_for".
func NormalizeSourceName(headerName string) string {
	return strings.ToLower(strings.ReplaceAll(headerName, "-", "_"))
}
