package state

import (
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/genesis"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveBeneficiary returns the account that collects tips and rewards
// for blocks mined by this node.
func (s *State) RetrieveBeneficiary() string {
	return s.beneficiary
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current chain head.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool in arrival order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveBalances returns a copy of the current account balances.
func (s *State) RetrieveBalances() map[string]uint {
	return s.db.CopyBalances()
}

// RetrieveWitness returns the recorded signature for the specified
// transaction identity.
func (s *State) RetrieveWitness(txID string) ([]byte, bool) {
	return s.witness.Get(txID)
}
