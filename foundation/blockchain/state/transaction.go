package state

import (
	"errors"
	"fmt"

	"github.com/hashlight/chain/foundation/blockchain/database"
)

// SubmitTransaction accepts a signed transaction for inclusion. The
// signature must resolve, from the transaction or the witness store, and
// verify before the transaction reaches the mempool.
func (s *State) SubmitTransaction(tx database.Tx) error {
	s.evHandler("state: SubmitTransaction: validate: tx[%s]", tx.ID())

	if err := tx.VerifySignature(s.witness); err != nil {
		return err
	}

	n, err := s.mempool.Accept(tx)
	if err != nil {
		return err
	}

	s.evHandler("state: SubmitTransaction: accepted: tx[%s]: mempool[%d]", tx.ID(), n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// SubmitWitness records a detached signature for the specified transaction
// identity so a later submission or proof request can resolve it.
func (s *State) SubmitWitness(txID string, sig []byte) error {
	if len(txID) == 0 {
		return errors.New("missing transaction id")
	}
	if len(sig) == 0 {
		return fmt.Errorf("tx %s: empty signature", txID)
	}

	s.witness.Put(txID, sig)
	s.evHandler("state: SubmitWitness: recorded: tx[%s]", txID)

	return nil
}
