package public

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashlight/chain/business/sys/validate"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
)

// submitTx is the payload for adding a transaction to the mempool. The
// signature is optional. A transaction signed in detached mode arrives with
// no signature and is completed by a separate witness submission.
type submitTx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint   `json:"amount"`
	Nonce     uint   `json:"nonce"`
	BaseFee   uint   `json:"base_fee"`
	Tip       uint   `json:"tip"`
	Signature string `json:"signature,omitempty"`
	PublicKey string `json:"public_key" validate:"required"`
}

// Validate checks the payload against the model rules.
func (st submitTx) Validate() error {
	return validate.Check(st)
}

// toDatabaseTx converts the wire form into the core transaction type.
func toDatabaseTx(st submitTx) (database.Tx, error) {
	publicKey, err := hexutil.Decode(st.PublicKey)
	if err != nil {
		return database.Tx{}, fmt.Errorf("unable to decode public key: %w", err)
	}

	var sig []byte
	if st.Signature != "" {
		if sig, err = hexutil.Decode(st.Signature); err != nil {
			return database.Tx{}, fmt.Errorf("unable to decode signature: %w", err)
		}
	}

	tx := database.Tx{
		Sender:    st.Sender,
		Recipient: st.Recipient,
		Amount:    st.Amount,
		Nonce:     st.Nonce,
		BaseFee:   st.BaseFee,
		Tip:       st.Tip,
		Signature: sig,
		PublicKey: publicKey,
	}

	return tx, nil
}

// submitWitness is the payload for registering a detached signature.
type submitWitness struct {
	TxID      string `json:"tx_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Validate checks the payload against the model rules.
func (sw submitWitness) Validate() error {
	return validate.Check(sw)
}

// =============================================================================

type tx struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    uint   `json:"amount"`
	Nonce     uint   `json:"nonce"`
	BaseFee   uint   `json:"base_fee"`
	Tip       uint   `json:"tip"`
	Sig       string `json:"sig,omitempty"`
}

// toAppTx renders the core transaction in its wire form. An empty sig means
// the signature lives in the witness store, not on the transaction.
func toAppTx(dbTx database.Tx) tx {
	appTx := tx{
		ID:        dbTx.ID(),
		Sender:    dbTx.Sender,
		Recipient: dbTx.Recipient,
		Amount:    dbTx.Amount,
		Nonce:     dbTx.Nonce,
		BaseFee:   dbTx.BaseFee,
		Tip:       dbTx.Tip,
	}

	if len(dbTx.Signature) > 0 {
		appTx.Sig = hexutil.Encode(dbTx.Signature)
	}

	return appTx
}

type block struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"previous_hash"`
	Beneficiary   string `json:"beneficiary"`
	Difficulty    uint   `json:"difficulty"`
	Height        uint64 `json:"height"`
	MerkleRoot    string `json:"merkle_root"`
	Nonce         uint64 `json:"nonce"`
	TimeStamp     uint64 `json:"timestamp"`
	Trans         []tx   `json:"txs"`
}

// toAppBlock renders a core block in its wire form.
func toAppBlock(dbBlock database.Block) block {
	trans := make([]tx, len(dbBlock.Trans))
	for i, dbTx := range dbBlock.Trans {
		trans[i] = toAppTx(dbTx)
	}

	return block{
		Hash:          dbBlock.Hash(),
		PrevBlockHash: dbBlock.Header.PrevBlockHash,
		Beneficiary:   dbBlock.Beneficiary,
		Difficulty:    dbBlock.Header.Difficulty,
		Height:        dbBlock.Header.Height,
		MerkleRoot:    dbBlock.Header.MerkleRoot,
		Nonce:         dbBlock.Header.Nonce,
		TimeStamp:     dbBlock.Header.TimeStamp,
		Trans:         trans,
	}
}

type balance struct {
	Account string `json:"account"`
	Balance uint   `json:"balance"`
}

type actInfo struct {
	LastestBlock string    `json:"lastest_block"`
	Uncommitted  int       `json:"uncommitted"`
	Balances     []balance `json:"balances"`
}

type proof struct {
	Height     uint64              `json:"height"`
	TxID       string              `json:"tx_id"`
	MerkleRoot string              `json:"merkle_root"`
	Proof      []merkle.ProofEntry `json:"proof"`
}

type bloomInfo struct {
	Height    uint64 `json:"height"`
	MBits     uint   `json:"m_bits"`
	HashCount uint   `json:"hash_count"`
	SetBits   uint   `json:"set_bits"`
	Bits      string `json:"bits"`
}

type inclusion struct {
	Height        uint64              `json:"height"`
	TxID          string              `json:"tx_id"`
	Status        string              `json:"status"`
	BloomScreened bool                `json:"bloom_screened"`
	Proof         []merkle.ProofEntry `json:"proof,omitempty"`
}
