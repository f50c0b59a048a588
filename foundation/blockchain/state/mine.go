package state

import (
	"context"
	"errors"

	"github.com/hashlight/chain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions to fill it under the configured
// block filling policy.
var ErrNoTransactions = errors.New("not enough transactions in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The transactions are taken from the
// front of the mempool and stay out of it whatever the mining outcome.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	howMany := int(s.genesis.TransPerBlock)
	if s.genesis.ExactTransPerBlock && s.mempool.Count() < howMany {
		if s.mempool.Count() > 0 {
			return database.Block{}, ErrNoTransactions
		}
		howMany = 0
	}
	trans := s.mempool.GetBatch(howMany)

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	return s.mineBlock(ctx, s.genesis.Difficulty, s.genesis.MaxAttempts, trans)
}

// MineCustomBlock mines the current mempool contents at the specified
// difficulty and attempt budget instead of the genesis settings.
func (s *State) MineCustomBlock(ctx context.Context, difficulty uint, maxAttempts uint64) (database.Block, error) {
	trans := s.mempool.GetBatch(int(s.genesis.TransPerBlock))

	s.evHandler("state: MineCustomBlock: MINING: perform POW: difficulty[%d] txs[%d]", difficulty, len(trans))

	return s.mineBlock(ctx, difficulty, maxAttempts, trans)
}

// mineBlock performs the POW search and, on success, runs the block
// through validation and the ledger.
func (s *State) mineBlock(ctx context.Context, difficulty uint, maxAttempts uint64, trans []database.Tx) (database.Block, error) {
	block, err := database.POW(ctx, s.beneficiary, difficulty, s.db.LatestBlock(), trans, maxAttempts, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: mineBlock: MINING: update local state")

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// updateLocalState takes a mined block and updates the current state of
// the chain. The block is validated against the chain head, applied to the
// ledger all or nothing, archived, and the conservation invariant is
// rechecked.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: validate block")

	if err := block.ValidateBlock(s.db.LatestBlock(), s.genesis, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: apply block to the ledger")

	if err := s.db.ApplyBlock(block, s.witness); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: archive block and artifacts")

	if err := s.archive.Write(block); err != nil {
		return err
	}

	if err := s.db.ValidateSupply(); err != nil {
		return err
	}

	return nil
}
