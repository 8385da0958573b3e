package ipmapper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/codeGROOVE-dev/retry"
)

// Load reads src once and builds a Registry. Only the ordering, retry,
// logging and metrics options apply.
//
// Load never returns a nil Registry. When src cannot be read or parsed it
// returns an empty registry together with a *ConfigLoadError; if ctx ends
// first, the context error is returned instead. An empty source yields an
// empty registry and no error. Malformed entries are skipped and reported
// through Registry.Warnings.
//
// Load does not call Metrics.RecordRegistryLoad: the registry it returns is
// not active until a Mapper publishes it.
func Load(ctx context.Context, src Source, opts ...Option) (*Registry, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return emptyRegistry(), fmt.Errorf("invalid configuration: %w", err)
	}

	registry, _, err := loadRegistry(ctx, cfg, src)
	return registry, err
}

// loadRegistry builds a registry from src and reports the load result label
// for RecordRegistryLoad. A context error is returned unwrapped and unlogged;
// the caller keeps whatever registry it already has.
func loadRegistry(ctx context.Context, cfg *config, src Source) (*Registry, string, error) {
	if src == nil {
		cfg.logger.WarnContext(ctx, "no mapping source configured; requests pass through unclassified")
		return emptyRegistry(), loadResultEmpty, nil
	}

	entries, err := readEntries(ctx, cfg, src)
	if err != nil {
		if isContextError(err) {
			return emptyRegistry(), loadResultFailure, err
		}

		cfg.logger.ErrorContext(ctx, "mapping configuration could not be loaded; no rules are active",
			"source", src.Name(),
			"error", err,
		)
		return emptyRegistry(), loadResultFailure, &ConfigLoadError{Source: src.Name(), Err: err}
	}

	blocks, warnings := buildBlocks(entries)
	for _, warning := range warnings {
		logLoadWarning(ctx, cfg, src, warning)
	}

	registry, err := newRegistry(blocks, cfg.blockOrder, warnings)
	if err != nil {
		cfg.logger.ErrorContext(ctx, "mapping configuration could not be indexed; no rules are active",
			"source", src.Name(),
			"error", err,
		)
		return emptyRegistry(), loadResultFailure, &ConfigLoadError{Source: src.Name(), Err: err}
	}

	if registry.IsEmpty() {
		cfg.logger.WarnContext(ctx, "mapping configuration contains no usable blocks; requests pass through unclassified",
			"source", src.Name(),
			"skipped", len(warnings),
		)
		return registry, loadResultEmpty, nil
	}

	cfg.logger.InfoContext(ctx, "mapping configuration loaded",
		"source", src.Name(),
		"blocks", registry.Len(),
		"skipped", len(warnings),
		"order", cfg.blockOrder.String(),
	)

	return registry, loadResultSuccess, nil
}

func readEntries(ctx context.Context, cfg *config, src Source) ([]Entry, error) {
	var entries []Entry
	var lastErr error

	err := retry.Do(
		func() error {
			var err error
			entries, err = src.Entries(ctx)
			if err != nil {
				lastErr = err
				return err
			}
			return nil
		},
		retry.Attempts(cfg.loadAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(cfg.loadMaxDelay),
		retry.Context(ctx),
		retry.RetryIf(isTransientLoadError),
		retry.OnRetry(func(n uint, err error) {
			cfg.logger.WarnContext(ctx, "mapping source read failed, retrying",
				"source", src.Name(),
				"attempt", n+1,
				"error", err,
			)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}

	return entries, nil
}

// isTransientLoadError reports whether reading the source again could
// succeed.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isTransientLoadError(err error) bool {
	switch {
	case errors.Is(err, ErrSourceFormat),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		isContextError(err):
		return false
	default:
		return true
	}
}

// buildBlocks turns raw entries into blocks. Problems are reported per entry
// and never abort the load: a malformed token is dropped from its block, and
// a block with an invalid name or without any valid range is dropped.
func buildBlocks(entries []Entry) ([]NetworkBlock, []error) {
	blocks := make([]NetworkBlock, 0, len(entries))
	var warnings []error

	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if !validBlockName(name) {
			warnings = append(warnings, &BlockError{Block: entry.Name, Err: ErrInvalidBlockName})
			continue
		}

		block := NetworkBlock{Name: name}
		for token := range strings.SplitSeq(entry.Value, ",") {
			token = strings.TrimSpace(token)

			r, err := ParseRange(token)
			if err != nil {
				warnings = append(warnings, &RangeError{Block: name, Token: token, Err: err})
				continue
			}
			block.Ranges = append(block.Ranges, r)
		}

		if len(block.Ranges) == 0 {
			warnings = append(warnings, &BlockError{Block: name, Err: ErrEmptyBlock})
			continue
		}

		blocks = append(blocks, block)
	}

	return blocks, warnings
}

func logLoadWarning(ctx context.Context, cfg *config, src Source, warning error) {
	var rangeErr *RangeError
	if errors.As(warning, &rangeErr) {
		cfg.metrics.RecordSecurityEvent(securityEventMalformedRange)
		cfg.logger.WarnContext(ctx, "skipping malformed range token",
			"event", securityEventMalformedRange,
			"source", src.Name(),
			"block", rangeErr.Block,
			"token", rangeErr.Token,
			"error", rangeErr.Err,
		)
		return
	}

	var blockErr *BlockError
	if !errors.As(warning, &blockErr) {
		return
	}

	event := securityEventEmptyBlock
	msg := "skipping block without valid ranges"
	if errors.Is(blockErr.Err, ErrInvalidBlockName) {
		event = securityEventInvalidBlockName
		msg = "skipping block with invalid name"
	}

	cfg.metrics.RecordSecurityEvent(event)
	cfg.logger.WarnContext(ctx, msg,
		"event", event,
		"source", src.Name(),
		"block", blockErr.Block,
	)
}
