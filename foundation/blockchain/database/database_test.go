package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/genesis"
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
		MaxAttempts:   10_000_000,
		Balances: map[string]uint{
			"alice": 100,
			"bob":   100,
		},
	}
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

func mineBlock(t *testing.T, gen genesis.Genesis, prev database.Block, beneficiary string, trans []database.Tx) database.Block {
	t.Helper()

	block, err := database.POW(context.Background(), beneficiary, gen.Difficulty, prev, trans, gen.MaxAttempts, nopEv)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
	}

	return block
}

// =============================================================================

func Test_ApplyBlock(t *testing.T) {
	t.Log("Given the need to apply mined blocks to the ledger.")
	{
		t.Log("\tTest 0:\tWhen applying one funded transaction.")
		{
			gen := newGenesis()
			store := witness.New()
			db := database.New(gen, nopEv)

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, store, false)

			block := mineBlock(t, gen, db.LatestBlock(), "carol", []database.Tx{tx})

			if err := db.ApplyBlock(block, store); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to apply the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to apply the block.", success)

			exp := map[string]uint{"alice": 85, "bob": 110, "carol": 53}
			for account, balance := range exp {
				if got := db.Balance(account); got != balance {
					t.Errorf("\t%s\tTest 0:\tShould have the correct balance for %s, got %d, exp %d.", failed, account, got, balance)
				} else {
					t.Logf("\t%s\tTest 0:\tShould have the correct balance for %s.", success, account)
				}
			}

			if got := db.TotalMined(); got != gen.MiningReward {
				t.Errorf("\t%s\tTest 0:\tShould have minted the mining reward, got %d, exp %d.", failed, got, gen.MiningReward)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have minted the mining reward.", success)
			}

			if got := db.TotalBurned(); got != gen.BaseFee {
				t.Errorf("\t%s\tTest 0:\tShould have burned the base fee, got %d, exp %d.", failed, got, gen.BaseFee)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have burned the base fee.", success)
			}

			if err := db.ValidateSupply(); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould hold the conservation invariant: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould hold the conservation invariant.", success)
			}

			if db.LatestBlock().Header.Height != 1 {
				t.Errorf("\t%s\tTest 0:\tShould have moved the chain head to height 1.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have moved the chain head to height 1.", success)
			}

			if _, exists := store.Get(tx.ID()); !exists {
				t.Errorf("\t%s\tTest 0:\tShould have mirrored the inline signature into the witness store.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have mirrored the inline signature into the witness store.", success)
			}
		}

		t.Log("\tTest 1:\tWhen applying a detached transaction.")
		{
			gen := newGenesis()
			store := witness.New()
			db := database.New(gen, nopEv)

			tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, store, true)
			if len(tx.Signature) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould carry no inline signature after detached signing.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould carry no inline signature after detached signing.", success)

			block := mineBlock(t, gen, db.LatestBlock(), "carol", []database.Tx{tx})

			if err := db.ApplyBlock(block, store); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to apply the block via the witness store: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to apply the block via the witness store.", success)

			if got := db.Balance("bob"); got != 110 {
				t.Errorf("\t%s\tTest 1:\tShould have credited the recipient, got %d, exp %d.", failed, got, 110)
			} else {
				t.Logf("\t%s\tTest 1:\tShould have credited the recipient.", success)
			}
		}

		t.Log("\tTest 2:\tWhen one transaction in the block is bad.")
		{
			gen := newGenesis()
			store := witness.New()
			db := database.New(gen, nopEv)

			good := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, store, false)
			bad := signTx(t, database.NewTx("bob", "alice", 10, 1, gen.BaseFee, gen.Tip), bobHexKey, store, false)
			bad.Amount = 90

			block := mineBlock(t, gen, db.LatestBlock(), "carol", []database.Tx{good, bad})

			err := db.ApplyBlock(block, store)
			if !errors.Is(err, database.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the block with an invalid signature error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the block with an invalid signature error.", success)

			for account, balance := range map[string]uint{"alice": 100, "bob": 100, "carol": 0} {
				if got := db.Balance(account); got != balance {
					t.Errorf("\t%s\tTest 2:\tShould leave the balance for %s untouched, got %d, exp %d.", failed, account, got, balance)
				} else {
					t.Logf("\t%s\tTest 2:\tShould leave the balance for %s untouched.", success, account)
				}
			}

			if db.LatestBlock().Header.Height != 0 {
				t.Errorf("\t%s\tTest 2:\tShould leave the chain head at the genesis block.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould leave the chain head at the genesis block.", success)
			}

			if db.TotalMined() != 0 || db.TotalBurned() != 0 {
				t.Errorf("\t%s\tTest 2:\tShould leave the supply counters untouched.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould leave the supply counters untouched.", success)
			}
		}

		t.Log("\tTest 3:\tWhen the sender cannot cover the full debit.")
		{
			gen := newGenesis()
			store := witness.New()
			db := database.New(gen, nopEv)

			tx := signTx(t, database.NewTx("alice", "bob", 99, 1, gen.BaseFee, gen.Tip), aliceHexKey, store, false)

			block := mineBlock(t, gen, db.LatestBlock(), "carol", []database.Tx{tx})

			err := db.ApplyBlock(block, store)
			if !errors.Is(err, database.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest 3:\tShould reject the block with an insufficient funds error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould reject the block with an insufficient funds error.", success)

			if got := db.Balance("alice"); got != 100 {
				t.Errorf("\t%s\tTest 3:\tShould leave the sender balance untouched, got %d, exp %d.", failed, got, 100)
			} else {
				t.Logf("\t%s\tTest 3:\tShould leave the sender balance untouched.", success)
			}
		}
	}
}

func Test_TxIdentity(t *testing.T) {
	t.Log("Given the need for a stable content addressed transaction identity.")
	{
		t.Log("\tTest 0:\tWhen signing and detaching a transaction.")
		{
			store := witness.New()

			tx := database.NewTx("alice", "bob", 10, 1, 2, 3)
			unsignedID := tx.ID()

			signed := signTx(t, tx, aliceHexKey, store, false)
			if signed.ID() != unsignedID {
				t.Errorf("\t%s\tTest 0:\tShould keep the identity across signing.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the identity across signing.", success)
			}

			detached, err := signed.Detach(store)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to detach the signature: %v", failed, err)
			}
			if detached.ID() != unsignedID {
				t.Errorf("\t%s\tTest 0:\tShould keep the identity across detachment.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the identity across detachment.", success)
			}

			if err := detached.VerifySignature(store); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould verify the detached transaction via the store: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould verify the detached transaction via the store.", success)
			}
		}

		t.Log("\tTest 1:\tWhen the economic fields change.")
		{
			tx := database.NewTx("alice", "bob", 10, 1, 2, 3)
			other := database.NewTx("alice", "bob", 11, 1, 2, 3)

			if tx.ID() == other.ID() {
				t.Errorf("\t%s\tTest 1:\tShould produce different identities for different amounts.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould produce different identities for different amounts.", success)
			}

			if got, exp := tx.TotalDebit(), uint(15); got != exp {
				t.Errorf("\t%s\tTest 1:\tShould compute the total debit, got %d, exp %d.", failed, got, exp)
			} else {
				t.Logf("\t%s\tTest 1:\tShould compute the total debit.", success)
			}
		}
	}
}

func Test_ValidateBlock(t *testing.T) {
	t.Log("Given the need to validate blocks against the chain head.")
	{
		gen := newGenesis()
		store := witness.New()
		db := database.New(gen, nopEv)

		tx := signTx(t, database.NewTx("alice", "bob", 10, 1, gen.BaseFee, gen.Tip), aliceHexKey, store, false)
		block := mineBlock(t, gen, db.LatestBlock(), "carol", []database.Tx{tx})

		t.Log("\tTest 0:\tWhen the block is well formed.")
		{
			if err := block.ValidateBlock(db.LatestBlock(), gen, nopEv); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the mined block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate the mined block.", success)
		}

		t.Log("\tTest 1:\tWhen the block is tampered with.")
		{
			wrongHeight := block
			wrongHeight.Header.Height = 3
			if err := wrongHeight.ValidateBlock(db.LatestBlock(), gen, nopEv); !errors.Is(err, database.ErrInvalidStructure) {
				t.Errorf("\t%s\tTest 1:\tShould reject a block with the wrong height: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a block with the wrong height.", success)
			}

			wrongParent := block
			wrongParent.Header.PrevBlockHash = "0x0000000000000000000000000000000000000000000000000000000000000001"
			if err := wrongParent.ValidateBlock(db.LatestBlock(), gen, nopEv); !errors.Is(err, database.ErrInvalidStructure) {
				t.Errorf("\t%s\tTest 1:\tShould reject a block with the wrong parent hash: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a block with the wrong parent hash.", success)
			}

			extraTx := block
			extraTx.Trans = append([]database.Tx{}, block.Trans...)
			extraTx.Trans = append(extraTx.Trans, database.NewTx("bob", "alice", 1, 1, gen.BaseFee, gen.Tip))
			if err := extraTx.ValidateBlock(db.LatestBlock(), gen, nopEv); !errors.Is(err, database.ErrInvalidStructure) {
				t.Errorf("\t%s\tTest 1:\tShould reject a block whose merkle root does not match: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a block whose merkle root does not match.", success)
			}
		}

		t.Log("\tTest 2:\tWhen the transaction count breaks policy.")
		{
			overLimit := make([]database.Tx, gen.TransPerBlock+1)
			for i := range overLimit {
				overLimit[i] = database.NewTx("alice", "bob", 1, uint(i+1), gen.BaseFee, gen.Tip)
			}
			big := mineBlock(t, gen, db.LatestBlock(), "carol", overLimit)
			if err := big.ValidateBlock(db.LatestBlock(), gen, nopEv); !errors.Is(err, database.ErrInvalidStructure) {
				t.Errorf("\t%s\tTest 2:\tShould reject a block over the transaction limit: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject a block over the transaction limit.", success)
			}

			exact := gen
			exact.ExactTransPerBlock = true
			exact.TransPerBlock = 2
			if err := block.ValidateBlock(db.LatestBlock(), exact, nopEv); !errors.Is(err, database.ErrInvalidStructure) {
				t.Errorf("\t%s\tTest 2:\tShould reject a partial block in exact mode: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject a partial block in exact mode.", success)
			}

			empty := mineBlock(t, exact, db.LatestBlock(), "carol", nil)
			if err := empty.ValidateBlock(db.LatestBlock(), exact, nopEv); err != nil {
				t.Errorf("\t%s\tTest 2:\tShould accept an empty block in exact mode: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould accept an empty block in exact mode.", success)
			}
		}
	}
}

func Test_POW(t *testing.T) {
	t.Log("Given the need to bound the mining search.")
	{
		t.Log("\tTest 0:\tWhen the attempt budget is too small for the difficulty.")
		{
			gen := newGenesis()
			db := database.New(gen, nopEv)

			_, err := database.POW(context.Background(), "carol", 6, db.LatestBlock(), nil, 1, nopEv)
			if !errors.Is(err, database.ErrMiningExhausted) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with a mining exhausted error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with a mining exhausted error.", success)
		}

		t.Log("\tTest 1:\tWhen the difficulty is reachable.")
		{
			gen := newGenesis()
			db := database.New(gen, nopEv)

			block, err := database.POW(context.Background(), "carol", gen.Difficulty, db.LatestBlock(), nil, gen.MaxAttempts, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine an empty block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to mine an empty block.", success)

			hash := block.Hash()
			if hash[:3] != "0x0" {
				t.Errorf("\t%s\tTest 1:\tShould produce a hash with the difficulty prefix, got %s.", failed, hash)
			} else {
				t.Logf("\t%s\tTest 1:\tShould produce a hash with the difficulty prefix.", success)
			}

			if block.Beneficiary != "carol" {
				t.Errorf("\t%s\tTest 1:\tShould carry the beneficiary on the block.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould carry the beneficiary on the block.", success)
			}
		}
	}
}
