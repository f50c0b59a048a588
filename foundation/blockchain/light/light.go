// Package light implements the client side of inclusion verification. A
// light client tracks block headers only and relies on a proof source for
// the per block artifacts, screening with the bloom filter before it asks
// for a proof.
package light

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashlight/chain/foundation/blockchain/bloom"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
)

// ErrUnknownHeader is returned when an inclusion check names a height the
// client has not tracked a header for.
var ErrUnknownHeader = errors.New("header not tracked")

// ProofSource is the view of a full node the light client depends on.
type ProofSource interface {
	BlockBloom(height uint64) (*bloom.Filter, error)
	TxProof(height uint64, txID string) ([]merkle.ProofEntry, error)
}

// Status is the outcome of an inclusion check.
type Status string

// Set of outcomes an inclusion check can report.
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Result carries the outcome of an inclusion check and how it was reached.
type Result struct {
	Status        Status
	BloomScreened bool // The bloom filter ruled the identity out without a proof request.
	Proof         []merkle.ProofEntry
}

// =============================================================================

// Client represents a light client. The tracked headers are the trust
// anchor, a proof only counts when it replays to the merkle root the client
// already holds.
type Client struct {
	mu      sync.RWMutex
	headers map[uint64]database.BlockHeader
	source  ProofSource
}

// NewClient constructs a light client over the specified proof source.
func NewClient(source ProofSource) *Client {
	return &Client{
		headers: make(map[uint64]database.BlockHeader),
		source:  source,
	}
}

// TrackHeader records the header for its height. Re-tracking a height
// replaces the header.
func (c *Client) TrackHeader(header database.BlockHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.headers[header.Height] = header
}

// Header returns the tracked header for the specified height.
func (c *Client) Header(height uint64) (database.BlockHeader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	header, exists := c.headers[height]
	return header, exists
}

// VerifyInclusion checks whether the specified transaction identity is part
// of the block at the specified height. The bloom filter screens first, a
// miss is a definitive absence and no proof is requested. Otherwise a proof
// is requested and replayed against the tracked header's merkle root.
func (c *Client) VerifyInclusion(height uint64, txID string) (Result, error) {
	header, exists := c.Header(height)
	if !exists {
		return Result{}, fmt.Errorf("height %d: %w", height, ErrUnknownHeader)
	}

	filter, err := c.source.BlockBloom(height)
	if err != nil {
		return Result{}, fmt.Errorf("bloom for height %d: %w", height, err)
	}

	if !filter.MightContain([]byte(txID)) {
		return Result{Status: StatusAbsent, BloomScreened: true}, nil
	}

	proof, err := c.source.TxProof(height, txID)
	if err != nil {
		if errors.Is(err, merkle.ErrNotFound) {
			return Result{Status: StatusAbsent}, nil
		}
		return Result{}, fmt.Errorf("proof for height %d: %w", height, err)
	}

	if !merkle.VerifyProof(header.MerkleRoot, txID, proof) {
		return Result{Status: StatusAbsent}, nil
	}

	return Result{Status: StatusPresent, Proof: proof}, nil
}
