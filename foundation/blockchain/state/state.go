// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/genesis"
	"github.com/hashlight/chain/foundation/blockchain/mempool"
	"github.com/hashlight/chain/foundation/blockchain/storage/memory"
	"github.com/hashlight/chain/foundation/blockchain/witness"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of mining and persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start the chain node.
type Config struct {
	Beneficiary string
	Host        string
	Genesis     genesis.Genesis
	EvHandler   EventHandler
}

// State manages the blockchain database, the mempool, the block archive,
// and the witness store.
type State struct {
	mu sync.Mutex

	beneficiary string
	host        string
	evHandler   EventHandler

	genesis genesis.Genesis
	db      *database.Database
	mempool *mempool.Mempool
	archive *memory.Archive
	witness *witness.Store

	Worker Worker
}

// New constructs a new blockchain state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Seed the ledger from the genesis balances. The unmined genesis block
	// becomes the chain head.
	db := database.New(cfg.Genesis, ev)

	// The archive holds every accepted block with the artifacts that serve
	// inclusion proofs. The genesis block is archived like any other.
	archive := memory.New(cfg.Genesis.BloomBits, cfg.Genesis.BloomHashes)
	if err := archive.Write(db.LatestBlock()); err != nil {
		return nil, err
	}

	// Admission into the mempool is gated by the ledger visible balance.
	mp := mempool.New(db.Balance)

	state := State{
		beneficiary: cfg.Beneficiary,
		host:        cfg.Host,
		evHandler:   ev,

		genesis: cfg.Genesis,
		db:      db,
		mempool: mp,
		archive: archive,
		witness: witness.New(),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
