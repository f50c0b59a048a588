package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/genesis"
	"github.com/hashlight/chain/foundation/blockchain/light"
	"github.com/hashlight/chain/foundation/blockchain/mempool"
	"github.com/hashlight/chain/foundation/blockchain/state"
	"github.com/hashlight/chain/foundation/blockchain/witness"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// Keys used for signing inside the tests.
const (
	aliceHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	bobHexKey   = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

var nopEv = func(v string, args ...any) {}

func newGenesis() genesis.Genesis {
	return genesis.Genesis{
		Difficulty:    1,
		MiningReward:  50,
		BaseFee:       2,
		Tip:           3,
		TransPerBlock: 4,
		BloomBits:     2048,
		BloomHashes:   3,
		MaxAttempts:   10_000_000,
		Balances: map[string]uint{
			"alice": 100,
			"bob":   100,
		},
	}
}

func newState(t *testing.T, gen genesis.Genesis) *state.State {
	t.Helper()

	st, err := state.New(state.Config{
		Beneficiary: "carol",
		Host:        "http://localhost:8080",
		Genesis:     gen,
		EvHandler:   nopEv,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

func signTx(t *testing.T, tx database.Tx, hexKey string, store *witness.Store, detach bool) database.Tx {
	t.Helper()

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the private key: %v", failed, err)
	}

	signed, err := tx.Sign(pk, store, detach)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	return signed
}

// =============================================================================

func Test_SubmitMineAndQuery(t *testing.T) {
	t.Log("Given the need to run a transaction through the whole node.")
	{
		t.Log("\tTest 0:\tWhen an attached transaction is submitted and mined.")
		{
			gen := newGenesis()
			st := newState(t, gen)

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, nil, false)

			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit the transaction.", success)

			if got := st.QueryMempoolLength(); got != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould report one queued transaction, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould report one queued transaction.", success)

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine the block.", success)

			if got := st.QueryMempoolLength(); got != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould drain the mempool, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould drain the mempool.", success)

			for account, balance := range map[string]uint{"alice": 85, "bob": 110, "carol": 53} {
				if got := st.QueryBalance(account); got != balance {
					t.Errorf("\t%s\tTest 0:\tShould have the correct balance for %s, got %d, exp %d.", failed, account, got, balance)
				} else {
					t.Logf("\t%s\tTest 0:\tShould have the correct balance for %s.", success, account)
				}
			}

			supply := st.QuerySupply()
			if supply.Initial != 200 || supply.Mined != 50 || supply.Burned != 2 || supply.Circulating != 248 {
				t.Errorf("\t%s\tTest 0:\tShould report the supply breakdown, got %+v.", failed, supply)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report the supply breakdown.", success)
			}

			archived, err := st.QueryBlockByHeight(1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould find the mined block in the archive: %v", failed, err)
			}
			if archived.Hash() != block.Hash() {
				t.Errorf("\t%s\tTest 0:\tShould archive the block that was mined.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould archive the block that was mined.", success)
			}

			if st.RetrieveLatestBlock().Header.Height != 1 {
				t.Errorf("\t%s\tTest 0:\tShould move the chain head to height 1.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould move the chain head to height 1.", success)
			}
		}

		t.Log("\tTest 1:\tWhen the signature travels through the witness store.")
		{
			gen := newGenesis()
			st := newState(t, gen)

			// The wallet keeps the signature in its own store and sends the
			// witness and the bare transaction separately.
			walletStore := witness.New()
			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, walletStore, true)

			sig, exists := walletStore.Get(tx.ID())
			if !exists {
				t.Fatalf("\t%s\tTest 1:\tShould find the detached signature in the wallet store.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould find the detached signature in the wallet store.", success)

			if err := st.SubmitWitness(tx.ID(), sig); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the witness: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to submit the witness.", success)

			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the bare transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to submit the bare transaction.", success)

			if _, err := st.MineNewBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to mine the block.", success)

			if got := st.QueryBalance("bob"); got != 110 {
				t.Errorf("\t%s\tTest 1:\tShould credit the recipient, got %d, exp %d.", failed, got, 110)
			} else {
				t.Logf("\t%s\tTest 1:\tShould credit the recipient.", success)
			}
		}

		t.Log("\tTest 2:\tWhen submissions break the admission rules.")
		{
			gen := newGenesis()
			st := newState(t, gen)

			unsigned := database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip)
			if err := st.SubmitTransaction(unsigned); !errors.Is(err, database.ErrInvalidSignature) {
				t.Errorf("\t%s\tTest 2:\tShould reject an unsigned transaction: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject an unsigned transaction.", success)
			}

			rich := signTx(t, database.NewTx("alice", "bob", 99, 1, gen.BaseFee, gen.Tip), aliceHexKey, nil, false)
			if err := st.SubmitTransaction(rich); !errors.Is(err, database.ErrInsufficientFunds) {
				t.Errorf("\t%s\tTest 2:\tShould reject an unaffordable transaction: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject an unaffordable transaction.", success)
			}

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, nil, false)
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould accept a good transaction: %v", failed, err)
			}
			if err := st.SubmitTransaction(tx); !errors.Is(err, mempool.ErrDuplicate) {
				t.Errorf("\t%s\tTest 2:\tShould reject a duplicate submission: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject a duplicate submission.", success)
			}
		}
	}
}

func Test_LightClientAgainstState(t *testing.T) {
	t.Log("Given the need to serve proofs to a light client.")
	{
		t.Log("\tTest 0:\tWhen verifying inclusion against a mined block.")
		{
			gen := newGenesis()
			st := newState(t, gen)

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, nil, false)
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine the block.", success)

			client := light.NewClient(st)
			client.TrackHeader(block.Header)

			result, err := client.VerifyInclusion(block.Header.Height, tx.ID())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the inclusion check: %v", failed, err)
			}
			if result.Status != light.StatusPresent {
				t.Fatalf("\t%s\tTest 0:\tShould report the mined transaction present, got %s.", failed, result.Status)
			}
			t.Logf("\t%s\tTest 0:\tShould report the mined transaction present.", success)

			ghost := database.NewTx("mallory", "eve", 999, 42, gen.BaseFee, gen.Tip)
			result, err = client.VerifyInclusion(block.Header.Height, ghost.ID())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the absence check: %v", failed, err)
			}
			if result.Status != light.StatusAbsent {
				t.Fatalf("\t%s\tTest 0:\tShould report the unknown transaction absent, got %s.", failed, result.Status)
			}
			t.Logf("\t%s\tTest 0:\tShould report the unknown transaction absent.", success)
		}
	}
}

func Test_MiningExhaustion(t *testing.T) {
	t.Log("Given the need to recover when the attempt budget runs out.")
	{
		t.Log("\tTest 0:\tWhen the difficulty is unreachable within the budget.")
		{
			gen := newGenesis()
			gen.Difficulty = 6
			gen.MaxAttempts = 1
			st := newState(t, gen)

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, nil, false)
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}

			_, err := st.MineNewBlock(context.Background())
			if !errors.Is(err, database.ErrMiningExhausted) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with a mining exhausted error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with a mining exhausted error.", success)

			if st.RetrieveLatestBlock().Header.Height != 0 {
				t.Errorf("\t%s\tTest 0:\tShould keep the chain head at the genesis block.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the chain head at the genesis block.", success)
			}

			if got := st.QueryBalance("alice"); got != 100 {
				t.Errorf("\t%s\tTest 0:\tShould leave the balances untouched, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 0:\tShould leave the balances untouched.", success)
			}

			// The extracted batch does not return to the pool.
			if got := st.QueryMempoolLength(); got != 0 {
				t.Errorf("\t%s\tTest 0:\tShould leave the extracted batch out of the mempool, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 0:\tShould leave the extracted batch out of the mempool.", success)
			}
		}

		t.Log("\tTest 1:\tWhen mining an empty block is allowed.")
		{
			gen := newGenesis()
			st := newState(t, gen)

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine an empty block: %v", failed, err)
			}
			if len(block.Trans) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould carry no transactions, got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 1:\tShould be able to mine an empty block.", success)

			if got := st.QueryBalance("carol"); got != gen.MiningReward {
				t.Errorf("\t%s\tTest 1:\tShould still mint the mining reward, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 1:\tShould still mint the mining reward.", success)
			}
		}
	}
}

func Test_ExactBlockFilling(t *testing.T) {
	t.Log("Given the need to honor the exact block filling policy.")
	{
		t.Log("\tTest 0:\tWhen the pool cannot fill a whole block.")
		{
			gen := newGenesis()
			gen.ExactTransPerBlock = true
			gen.TransPerBlock = 2
			st := newState(t, gen)

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, nil, false)
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}

			if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to mine a partial block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to mine a partial block.", success)

			if got := st.QueryMempoolLength(); got != 1 {
				t.Errorf("\t%s\tTest 0:\tShould keep the transaction queued, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the transaction queued.", success)
			}

			second := signTx(t, database.NewTx("bob", "alice", 10, 1, gen.BaseFee, gen.Tip), bobHexKey, nil, false)
			if err := st.SubmitTransaction(second); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a second transaction: %v", failed, err)
			}

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould mine once the block fills: %v", failed, err)
			}
			if len(block.Trans) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould carry exactly two transactions, got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 0:\tShould mine once the block fills.", success)
		}
	}
}
