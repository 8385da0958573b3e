package ipmapper

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/yl2chen/cidranger"
)

// blockEntry is one distinct network in the containment index together with
// the indices of every block that declares it.
type blockEntry struct {
	network net.IPNet
	blocks  []int
}

func (e *blockEntry) Network() net.IPNet {
	return e.network
}

// blockMatcher answers "which blocks contain this address" with a single trie
// walk instead of testing every range of every block.
type blockMatcher struct {
	ranger cidranger.Ranger
	blocks int
}

func buildBlockMatcher(blocks []NetworkBlock) (blockMatcher, error) {
	matcher := blockMatcher{blocks: len(blocks)}
	if len(blocks) == 0 {
		return matcher, nil
	}

	// The trie keeps a single entry per network, so identical ranges shared
	// by several blocks are merged into one entry first.
	owners := make(map[netip.Prefix]*blockEntry)
	order := make([]*blockEntry, 0, len(blocks))

	for i, block := range blocks {
		for _, r := range block.Ranges {
			entry, ok := owners[r.Prefix]
			if !ok {
				entry = &blockEntry{network: r.ipNet()}
				owners[r.Prefix] = entry
				order = append(order, entry)
			}

			if n := len(entry.blocks); n > 0 && entry.blocks[n-1] == i {
				continue
			}
			entry.blocks = append(entry.blocks, i)
		}
	}

	matcher.ranger = cidranger.NewPCTrieRanger()
	for _, entry := range order {
		if err := matcher.ranger.Insert(entry); err != nil {
			return blockMatcher{}, fmt.Errorf("index network %s: %w", entry.network.String(), err)
		}
	}

	return matcher, nil
}

// match returns, per block index, whether the block contains addr.
func (m blockMatcher) match(addr netip.Addr) []bool {
	if m.ranger == nil || !addr.Is4() {
		return nil
	}

	entries, err := m.ranger.ContainingNetworks(net.IP(addr.AsSlice()))
	if err != nil || len(entries) == 0 {
		return nil
	}

	matched := make([]bool, m.blocks)
	for _, entry := range entries {
		be, ok := entry.(*blockEntry)
		if !ok {
			continue
		}
		for _, i := range be.blocks {
			matched[i] = true
		}
	}

	return matched
}
