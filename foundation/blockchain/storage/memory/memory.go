// Package memory implements the archive of accepted blocks in memory,
// together with the per block artifacts that serve inclusion proofs.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashlight/chain/foundation/blockchain/bloom"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
)

// ErrUnknownBlock is returned when no block exists at the requested height.
var ErrUnknownBlock = errors.New("unknown block height")

// Entry bundles a stored block with the artifacts derived from it at
// archive time. The tree answers inclusion proofs and the bloom filter
// answers cheap membership probes without touching the tree.
type Entry struct {
	Block database.Block
	Tree  *merkle.Tree
	Bloom *bloom.Filter
}

// Archive represents the in memory chain of accepted blocks, indexed by
// height. Blocks append in order starting with the genesis block.
type Archive struct {
	mu          sync.RWMutex
	entries     []Entry
	bloomBits   uint
	bloomHashes uint
}

// New constructs an Archive. The bloom geometry applies to every block
// filter the archive derives.
func New(bloomBits uint, bloomHashes uint) *Archive {
	return &Archive{
		bloomBits:   bloomBits,
		bloomHashes: bloomHashes,
	}
}

// Write appends the block at the next height and derives its merkle tree
// and bloom filter from the transaction identities.
func (a *Archive) Write(block database.Block) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if uint64(len(a.entries)) != block.Header.Height {
		return fmt.Errorf("block is out of order, got height %d, exp %d", block.Header.Height, len(a.entries))
	}

	ids := block.TxIDs()

	tree := merkle.NewTree(ids)
	filter := bloom.New(a.bloomBits, a.bloomHashes)
	for _, id := range ids {
		filter.Add([]byte(id))
	}

	a.entries = append(a.entries, Entry{Block: block, Tree: tree, Bloom: filter})

	return nil
}

// GetBlock returns the block stored at the specified height.
func (a *Archive) GetBlock(height uint64) (database.Block, error) {
	entry, err := a.GetEntry(height)
	if err != nil {
		return database.Block{}, err
	}

	return entry.Block, nil
}

// GetEntry returns the stored block with its derived artifacts.
func (a *Archive) GetEntry(height uint64) (Entry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if height >= uint64(len(a.entries)) {
		return Entry{}, fmt.Errorf("height %d: %w", height, ErrUnknownBlock)
	}

	return a.entries[height], nil
}

// Count returns the number of stored blocks, the genesis block included.
func (a *Archive) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.entries)
}
