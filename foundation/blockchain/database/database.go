// Package database handles the lower level support for maintaining the
// account balances, the supply counters, and the latest block in the chain.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashlight/chain/foundation/blockchain/genesis"
	"github.com/hashlight/chain/foundation/blockchain/witness"
)

// ErrInsufficientFunds is returned when a sender cannot cover the full
// debit of a transaction, the amount plus both fee components.
var ErrInsufficientFunds = errors.New("insufficient funds")

// =============================================================================

// Database manages the account balances and the chain head. All mutation
// happens through ApplyBlock, which either applies a block completely or
// leaves the database untouched.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	balances    map[string]uint
	totalMined  uint
	totalBurned uint
}

// New constructs a new database, seeds the balances from the genesis
// document, and installs the unmined genesis block as the chain head.
func New(gen genesis.Genesis, evHandler func(v string, args ...any)) *Database {
	db := Database{
		genesis:  gen,
		balances: make(map[string]uint, len(gen.Balances)),
	}

	for account, balance := range gen.Balances {
		db.balances[account] = balance
	}

	db.latestBlock = NewGenesisBlock(gen)
	evHandler("database: New: genesis block hash[%s]", db.latestBlock.Hash())

	return &db
}

// ApplyBlock performs the business logic for applying a block to the
// database. Every transaction is verified and funded against a scratch copy
// of the balances. Only when the whole block holds are the balances, the
// supply counters, and the chain head updated. Inline signatures are
// mirrored into the witness store on success so later proofs can resolve
// them by transaction identity.
func (db *Database) ApplyBlock(block Block, store *witness.Store) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	balances := make(map[string]uint, len(db.balances))
	for account, balance := range db.balances {
		balances[account] = balance
	}

	var burned uint
	for _, tx := range block.Trans {
		if err := tx.VerifySignature(store); err != nil {
			return err
		}

		debit := tx.TotalDebit()
		if balances[tx.Sender] < debit {
			return fmt.Errorf("tx %s: bal %d, needed %d: %w", tx, balances[tx.Sender], debit, ErrInsufficientFunds)
		}

		balances[tx.Sender] -= debit
		balances[tx.Recipient] += tx.Amount
		balances[block.Beneficiary] += tx.Tip
		burned += tx.BaseFee
	}

	// The mining reward is minted for every mined block. The genesis block
	// is not mined and carries no reward.
	if block.Header.Height > 0 {
		balances[block.Beneficiary] += db.genesis.MiningReward
		db.totalMined += db.genesis.MiningReward
	}

	if store != nil {
		for _, tx := range block.Trans {
			if len(tx.Signature) > 0 {
				store.Put(tx.ID(), tx.Signature)
			}
		}
	}

	db.balances = balances
	db.totalBurned += burned
	db.latestBlock = block

	return nil
}

// ValidateSupply checks the conservation invariant. The sum of all balances
// must equal the initial supply plus everything mined minus everything
// burned.
func (db *Database) ValidateSupply() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var supply uint
	for _, balance := range db.balances {
		supply += balance
	}

	exp := db.genesis.InitialSupply() + db.totalMined - db.totalBurned
	if supply != exp {
		return fmt.Errorf("supply out of conservation, got %d, exp %d", supply, exp)
	}

	return nil
}

// Balance returns the current balance for the specified account. Unknown
// accounts have a zero balance.
func (db *Database) Balance(account string) uint {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.balances[account]
}

// CopyBalances makes a copy of the current balances in the database.
func (db *Database) CopyBalances() map[string]uint {
	db.mu.RLock()
	defer db.mu.RUnlock()

	balances := make(map[string]uint, len(db.balances))
	for account, balance := range db.balances {
		balances[account] = balance
	}

	return balances
}

// TotalMined returns the total amount of reward minted so far.
func (db *Database) TotalMined() uint {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.totalMined
}

// TotalBurned returns the total amount of base fees burned so far.
func (db *Database) TotalBurned() uint {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.totalBurned
}

// LatestBlock returns the current chain head.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}
