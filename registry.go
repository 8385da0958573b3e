package ipmapper

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"
)

// HeaderDelimiter separates block names in the emitted header value. Block
// names can never contain it.
const HeaderDelimiter = ","

// BlockOrder controls the iteration order of a Registry, which is also the
// order of names in the emitted header.
type BlockOrder int

const (
	// Start at 1 so the zero value is rejected as unset.
	//
	// OrderByName sorts blocks by name. The emitted header is then identical
	// for every source format.
	OrderByName BlockOrder = iota + 1
	// OrderDeclared keeps the order in which blocks appear in the source.
	OrderDeclared
)

// String returns the canonical text representation of o.
func (o BlockOrder) String() string {
	switch o {
	case OrderByName:
		return "by_name"
	case OrderDeclared:
		return "declared"
	default:
		return "unknown"
	}
}

func (o BlockOrder) valid() bool {
	return o == OrderByName || o == OrderDeclared
}

// NetworkBlock is a named, non-empty set of IPv4 ranges.
type NetworkBlock struct {
	Name   string
	Ranges []Range
}

// Contains reports whether any range of the block contains addr.
func (b NetworkBlock) Contains(addr netip.Addr) bool {
	for _, r := range b.Ranges {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

func (b NetworkBlock) clone() NetworkBlock {
	return NetworkBlock{Name: b.Name, Ranges: slices.Clone(b.Ranges)}
}

// Registry is an immutable mapping from block name to network ranges.
//
// A Registry is never modified after construction and is safe for concurrent
// use. The nil *Registry behaves like an empty registry.
type Registry struct {
	blocks   []NetworkBlock
	index    map[string]int
	matcher  blockMatcher
	warnings []error
}

func emptyRegistry() *Registry {
	return &Registry{}
}

// NewRegistry builds a registry from already parsed blocks. Blocks are
// ordered according to order; later blocks with a duplicate name replace
// earlier ones in place, and blocks without ranges are dropped.
//
// A block name that could not be emitted verbatim in the header is rejected
// with a *BlockError wrapping ErrInvalidBlockName, as is an unknown order.
func NewRegistry(blocks []NetworkBlock, order BlockOrder) (*Registry, error) {
	if !order.valid() {
		return nil, fmt.Errorf("invalid block order %d (must be OrderByName=1 or OrderDeclared=2)", order)
	}

	for _, block := range blocks {
		if !validBlockName(block.Name) {
			return nil, &BlockError{Block: block.Name, Err: ErrInvalidBlockName}
		}
	}

	return newRegistry(blocks, order, nil)
}

func newRegistry(blocks []NetworkBlock, order BlockOrder, warnings []error) (*Registry, error) {
	deduped := make([]NetworkBlock, 0, len(blocks))
	positions := make(map[string]int, len(blocks))

	for _, block := range blocks {
		if len(block.Ranges) == 0 {
			continue
		}

		if i, ok := positions[block.Name]; ok {
			deduped[i] = block.clone()
			continue
		}

		positions[block.Name] = len(deduped)
		deduped = append(deduped, block.clone())
	}

	if order == OrderByName {
		slices.SortStableFunc(deduped, func(a, b NetworkBlock) int {
			return strings.Compare(a.Name, b.Name)
		})
	}

	matcher, err := buildBlockMatcher(deduped)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(deduped))
	for i, block := range deduped {
		index[block.Name] = i
	}

	return &Registry{
		blocks:   deduped,
		index:    index,
		matcher:  matcher,
		warnings: slices.Clone(warnings),
	}, nil
}

// IsEmpty reports whether no blocks were loaded. An empty registry never
// matches.
func (r *Registry) IsEmpty() bool {
	return r == nil || len(r.blocks) == 0
}

// Len returns the number of blocks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.blocks)
}

// Names returns the block names in registry order.
func (r *Registry) Names() []string {
	if r.IsEmpty() {
		return nil
	}

	names := make([]string, len(r.blocks))
	for i, block := range r.blocks {
		names[i] = block.Name
	}
	return names
}

// Blocks returns a copy of the blocks in registry order.
func (r *Registry) Blocks() []NetworkBlock {
	if r.IsEmpty() {
		return nil
	}

	blocks := make([]NetworkBlock, len(r.blocks))
	for i, block := range r.blocks {
		blocks[i] = block.clone()
	}
	return blocks
}

// Block looks up a block by name.
func (r *Registry) Block(name string) (NetworkBlock, bool) {
	if r.IsEmpty() {
		return NetworkBlock{}, false
	}

	i, ok := r.index[name]
	if !ok {
		return NetworkBlock{}, false
	}
	return r.blocks[i].clone(), true
}

// Warnings returns the per-entry problems (RangeError, BlockError) collected
// while the registry was loaded.
func (r *Registry) Warnings() []error {
	if r == nil {
		return nil
	}
	return slices.Clone(r.warnings)
}

// Classify returns the names of every block containing address, in registry
// order, each name at most once. Addresses that are not strict IPv4 literals
// never match.
func (r *Registry) Classify(address string) []string {
	addr, ok := parseIPv4(address)
	if !ok {
		return nil
	}
	return r.ClassifyAddr(addr)
}

// ClassifyAddr is Classify for an already parsed address.
func (r *Registry) ClassifyAddr(addr netip.Addr) []string {
	if r.IsEmpty() {
		return nil
	}

	matched := r.matcher.match(addr)
	if matched == nil {
		return nil
	}

	var names []string
	for i, ok := range matched {
		if ok {
			names = append(names, r.blocks[i].Name)
		}
	}
	return names
}
