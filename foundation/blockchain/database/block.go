package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashlight/chain/foundation/blockchain/genesis"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
	"github.com/hashlight/chain/foundation/blockchain/signature"
)

// ErrMiningExhausted is returned from POW when no winning nonce is found
// within the configured attempt budget. The condition is recoverable and
// the caller keeps the chain state it had before mining started.
var ErrMiningExhausted = errors.New("mining exhausted attempt budget")

// ErrInvalidStructure is returned from ValidateBlock when a block fails a
// structural check against the current chain head.
var ErrInvalidStructure = errors.New("invalid block structure")

// =============================================================================

// BlockHeader represents common information required for each block. The
// fields are declared in sorted key order so the JSON encoding that is
// hashed for the block identity is deterministic.
type BlockHeader struct {
	Difficulty    uint   `json:"difficulty"`    // Number of leading 0's needed to solve the hash solution.
	Height        uint64 `json:"height"`        // Position of the block in the chain.
	MerkleRoot    string `json:"merkle_root"`   // Merkle tree root hash for the transactions in this block.
	Nonce         uint64 `json:"nonce"`         // Value identified to solve the hash solution.
	PrevBlockHash string `json:"previous_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`     // Time the block was mined.
}

// Block represents a group of transactions batched together. The beneficiary
// receives the tips and the mining reward but is not part of the hashed
// header, so the block identity is a function of the header alone.
type Block struct {
	Header      BlockHeader `json:"header"`
	Beneficiary string      `json:"beneficiary"`
	Trans       []Tx        `json:"trans"`
}

// NewGenesisBlock constructs the first block of the chain from the genesis
// document. It is not mined. The previous hash is the zero hash and the
// merkle root is the sentinel for an empty tree.
func NewGenesisBlock(gen genesis.Genesis) Block {
	var ts uint64
	if !gen.Date.IsZero() {
		ts = uint64(gen.Date.UTC().Unix())
	}

	return Block{
		Header: BlockHeader{
			Difficulty:    0,
			Height:        0,
			MerkleRoot:    merkle.NewTree(nil).Root(),
			Nonce:         0,
			PrevBlockHash: signature.ZeroHash,
			TimeStamp:     ts,
		},
	}
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzel. The search is bounded by maxAttempts.
func POW(ctx context.Context, beneficiary string, difficulty uint, prevBlock Block, trans []Tx, maxAttempts uint64, evHandler func(v string, args ...any)) (Block, error) {

	// Construct a merkle tree from the transaction identities for this
	// block. The root of this tree will be part of the block to be mined.
	tree := merkle.NewTree(txIDs(trans))

	// Construct the block to be mined.
	nb := Block{
		Header: BlockHeader{
			Difficulty:    difficulty,
			Height:        prevBlock.Header.Height + 1,
			MerkleRoot:    tree.Root(),
			Nonce:         0, // Will be identified by the POW algorithm.
			PrevBlockHash: prevBlock.Hash(),
			TimeStamp:     uint64(time.Now().UTC().Unix()),
		},
		Beneficiary: beneficiary,
		Trans:       trans,
	}

	// Peform the proof of work mining operation.
	if err := nb.performPOW(ctx, maxAttempts, evHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, maxAttempts uint64, ev func(v string, args ...any)) error {
	ev("worker: performPOW: MINING: started")
	defer ev("worker: performPOW: MINING: completed")

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans {
		ev("worker: performPOW: MINING: tx[%s]", tx.ID())
	}

	// The nonce starts at zero and is incremented by 1 on every failed
	// attempt until a solution is found or the attempt budget runs out.
	b.Header.Nonce = 0

	for attempts := uint64(1); attempts <= maxAttempts; attempts++ {
		if attempts%1_000_000 == 0 {
			ev("worker: performPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("worker: performPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("worker: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("worker: performPOW: MINING: attempts[%d]", attempts)

		return nil
	}

	return fmt.Errorf("no solution within %d attempts: %w", maxAttempts, ErrMiningExhausted)
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {

	// CORE NOTE: Hashing the block header and not the whole block so the
	// chain can be cryptographically checked by only needing block headers
	// and not full blocks with the transaction data. The merkle root binds
	// the header to the transactions it carries.

	return signature.Hash(b.Header)
}

// ValidateBlock takes a block and validates it to be included into the chain.
func (b Block) ValidateBlock(previousBlock Block, gen genesis.Genesis, evHandler func(v string, args ...any)) error {
	evHandler("storage: ValidateBlock: validate: blk[%d]: check: block height is the next height", b.Header.Height)

	nextHeight := previousBlock.Header.Height + 1
	if b.Header.Height != nextHeight {
		return fmt.Errorf("this block is not the next height, got %d, exp %d: %w", b.Header.Height, nextHeight, ErrInvalidStructure)
	}

	evHandler("storage: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Height)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s: %w", b.Header.PrevBlockHash, previousBlock.Hash(), ErrInvalidStructure)
	}

	evHandler("storage: ValidateBlock: validate: blk[%d]: check: transaction count is within policy", b.Header.Height)

	if uint(len(b.Trans)) > gen.TransPerBlock {
		return fmt.Errorf("too many transactions, got %d, max %d: %w", len(b.Trans), gen.TransPerBlock, ErrInvalidStructure)
	}
	if gen.ExactTransPerBlock && len(b.Trans) > 0 && uint(len(b.Trans)) != gen.TransPerBlock {
		return fmt.Errorf("block must carry exactly %d transactions, got %d: %w", gen.TransPerBlock, len(b.Trans), ErrInvalidStructure)
	}

	evHandler("storage: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Height)

	root := merkle.NewTree(b.TxIDs()).Root()
	if b.Header.MerkleRoot != root {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s: %w", root, b.Header.MerkleRoot, ErrInvalidStructure)
	}

	evHandler("storage: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Height)

	hash := b.Hash()
	if !isHashSolved(b.Header.Difficulty, hash) {
		return fmt.Errorf("%s invalid block hash: %w", hash, ErrInvalidStructure)
	}

	return nil
}

// TxIDs returns the identities of the block's transactions in block order.
func (b Block) TxIDs() []string {
	return txIDs(b.Trans)
}

func txIDs(trans []Tx) []string {
	ids := make([]string, len(trans))
	for i, tx := range trans {
		ids[i] = tx.ID()
	}

	return ids
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's after the 0x prefix.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0x00000000000000000"

	if len(hash) != 66 {
		return false
	}

	difficulty += 2
	if difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
