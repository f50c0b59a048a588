package state

import (
	"github.com/hashlight/chain/foundation/blockchain/bloom"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
	"github.com/hashlight/chain/foundation/blockchain/storage/memory"
)

// QueryLastest represents to query the latest block in the chain.
const QueryLastest = ^uint64(0) >> 1

// =============================================================================

// Supply is the breakdown of where every unit of currency sits.
type Supply struct {
	Initial     uint `json:"initial"`
	Mined       uint `json:"mined"`
	Burned      uint `json:"burned"`
	Circulating uint `json:"circulating"`
}

// QuerySupply returns the supply counters. The circulating amount always
// equals the sum of all balances while the conservation invariant holds.
func (s *State) QuerySupply() Supply {
	initial := s.genesis.InitialSupply()
	mined := s.db.TotalMined()
	burned := s.db.TotalBurned()

	return Supply{
		Initial:     initial,
		Mined:       mined,
		Burned:      burned,
		Circulating: initial + mined - burned,
	}
}

// QueryBalance returns the current balance for the specified account.
func (s *State) QueryBalance(account string) uint {
	return s.db.Balance(account)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByHeight returns the set of blocks for the inclusive height
// range. Use QueryLastest for either bound to mean the chain head.
func (s *State) QueryBlocksByHeight(from uint64, to uint64) []database.Block {
	latest := s.db.LatestBlock().Header.Height

	if from == QueryLastest {
		from = latest
		to = latest
	}
	if to == QueryLastest {
		to = latest
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.archive.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByHeight: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}

// QueryBlockByHeight returns the archived block at the specified height.
func (s *State) QueryBlockByHeight(height uint64) (database.Block, error) {
	return s.archive.GetBlock(height)
}

// QueryArchiveEntry returns the archived block at the specified height
// together with its derived proof artifacts.
func (s *State) QueryArchiveEntry(height uint64) (memory.Entry, error) {
	return s.archive.GetEntry(height)
}

// =============================================================================

// BlockBloom returns the membership filter of the block at the specified
// height. Together with TxProof this lets the state serve as an in process
// proof source for light clients.
func (s *State) BlockBloom(height uint64) (*bloom.Filter, error) {
	entry, err := s.archive.GetEntry(height)
	if err != nil {
		return nil, err
	}

	return entry.Bloom, nil
}

// TxProof returns the inclusion proof for the specified transaction
// identity in the block at the specified height.
func (s *State) TxProof(height uint64, txID string) ([]merkle.ProofEntry, error) {
	entry, err := s.archive.GetEntry(height)
	if err != nil {
		return nil, err
	}

	return entry.Tree.Proof(txID)
}
