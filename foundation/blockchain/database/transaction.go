package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashlight/chain/foundation/blockchain/signature"
	"github.com/hashlight/chain/foundation/blockchain/witness"
)

// ErrInvalidSignature is returned when a transaction signature is missing
// from both the transaction and the witness store, or does not verify.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Tx is the transactional information between two parties. The signature
// and public key are witness data. They ride along with the transaction in
// attached mode and live in the witness store in detached mode.
type Tx struct {
	Sender    string `json:"sender"`               // Account the funds are debited from.
	Recipient string `json:"recipient"`            // Account receiving the benefit of the transaction.
	Amount    uint   `json:"amount"`               // Monetary value moved by this transaction.
	Nonce     uint   `json:"nonce"`                // Unique id for the transaction supplied by the sender.
	BaseFee   uint   `json:"base_fee"`             // Fee component that is burned when the transaction is mined.
	Tip       uint   `json:"tip"`                  // Fee component credited to the block beneficiary.
	Signature []byte `json:"signature,omitempty"`  // Signature over the canonical form, empty in detached mode.
	PublicKey []byte `json:"public_key,omitempty"` // Public key of the signer.
}

// canonicalTx is the form of a transaction that is hashed for its identity
// and signed. It carries the economic fields only, declared in sorted key
// order so the JSON encoding is a deterministic function of the values.
type canonicalTx struct {
	Amount    uint   `json:"amount"`
	BaseFee   uint   `json:"base_fee"`
	Nonce     uint   `json:"nonce"`
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
	Tip       uint   `json:"tip"`
}

// NewTx constructs a new transaction between two accounts.
func NewTx(sender string, recipient string, amount uint, nonce uint, baseFee uint, tip uint) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Nonce:     nonce,
		BaseFee:   baseFee,
		Tip:       tip,
	}
}

// canonical returns the hashed form of the transaction.
func (tx Tx) canonical() canonicalTx {
	return canonicalTx{
		Amount:    tx.Amount,
		BaseFee:   tx.BaseFee,
		Nonce:     tx.Nonce,
		Recipient: tx.Recipient,
		Sender:    tx.Sender,
		Tip:       tx.Tip,
	}
}

// ID returns the identity of the transaction, the hash of its canonical
// form. Witness data is excluded, so the identity does not change when the
// transaction is signed or its signature is detached.
func (tx Tx) ID() string {
	return signature.Hash(tx.canonical())
}

// TotalDebit returns the full amount the sender pays for this transaction.
func (tx Tx) TotalDebit() uint {
	return tx.Amount + tx.BaseFee + tx.Tip
}

// Sign uses the specified private key to sign the transaction. In attached
// mode the signature is placed on the transaction. In detached mode the
// signature is written to the witness store under the transaction identity
// and the transaction's own signature field stays empty.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey, store *witness.Store, detach bool) (Tx, error) {
	sig, err := signature.Sign(tx.canonical(), privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.PublicKey = crypto.FromECDSAPub(&privateKey.PublicKey)

	if detach {
		if store == nil {
			return Tx{}, errors.New("detached signing requires a witness store")
		}

		store.Put(tx.ID(), sig)
		tx.Signature = nil
		return tx, nil
	}

	tx.Signature = sig
	return tx, nil
}

// Detach moves an attached signature into the witness store and returns the
// transaction without it. The identity is unchanged.
func (tx Tx) Detach(store *witness.Store) (Tx, error) {
	if len(tx.Signature) == 0 {
		return Tx{}, errors.New("transaction carries no signature to detach")
	}
	if store == nil {
		return Tx{}, errors.New("detaching requires a witness store")
	}

	store.Put(tx.ID(), tx.Signature)
	tx.Signature = nil

	return tx, nil
}

// VerifySignature resolves the signature for this transaction, from the
// transaction itself or from the witness store, and verifies it against the
// canonical form and the signer's public key.
func (tx Tx) VerifySignature(store *witness.Store) error {
	sig := tx.Signature
	if len(sig) == 0 && store != nil {
		sig, _ = store.Get(tx.ID())
	}

	if len(sig) == 0 {
		return fmt.Errorf("tx %s: no signature resolvable: %w", tx, ErrInvalidSignature)
	}

	if len(tx.PublicKey) == 0 {
		return fmt.Errorf("tx %s: no public key: %w", tx, ErrInvalidSignature)
	}

	if err := signature.VerifySignature(tx.canonical(), tx.PublicKey, sig); err != nil {
		return fmt.Errorf("tx %s: %s: %w", tx, err, ErrInvalidSignature)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%d", tx.Sender, tx.Nonce)
}
