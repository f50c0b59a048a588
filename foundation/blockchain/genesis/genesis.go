// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date               time.Time       `json:"date"`
	Difficulty         uint            `json:"difficulty"`            // Number of leading zero hex digits required of a block hash.
	MiningReward       uint            `json:"mining_reward"`         // Reward credited to the beneficiary of every mined block.
	BaseFee            uint            `json:"base_fee"`              // Default burned fee component of a transaction.
	Tip                uint            `json:"tip"`                   // Default beneficiary credited fee component of a transaction.
	TransPerBlock      uint            `json:"trans_per_block"`       // The maximum number of transactions that can be in a block.
	ExactTransPerBlock bool            `json:"exact_trans_per_block"` // When set, non empty blocks must hold exactly TransPerBlock transactions.
	BloomBits          uint            `json:"bloom_bits"`            // Bit array length of the per block bloom filter.
	BloomHashes        uint            `json:"bloom_hashes"`          // Number of hash probes per item in the bloom filter.
	MaxAttempts        uint64          `json:"max_attempts"`          // Bound on the nonce search of a single mining run.
	Balances           map[string]uint `json:"balances"`
}

// InitialSupply returns the sum of the genesis balances. The conservation
// check ties the current balances back to this value.
func (gen Genesis) InitialSupply() uint {
	var supply uint
	for _, balance := range gen.Balances {
		supply += balance
	}

	return supply
}

// =============================================================================

// Load opens and consumes the genesis file from its default location.
func Load() (Genesis, error) {
	return LoadFile("zblock/genesis.json")
}

// LoadFile opens and consumes the genesis file at the specified path.
func LoadFile(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
