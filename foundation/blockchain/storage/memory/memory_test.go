package memory_test

import (
	"errors"
	"testing"

	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/genesis"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
	"github.com/hashlight/chain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Archive(t *testing.T) {
	t.Log("Given the need to archive blocks with their proof artifacts.")
	{
		t.Log("\tTest 0:\tWhen writing blocks in order.")
		{
			gen := genesis.Genesis{Balances: map[string]uint{"alice": 100}}
			genesisBlock := database.NewGenesisBlock(gen)

			archive := memory.New(2048, 3)

			if err := archive.Write(genesisBlock); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the genesis block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write the genesis block.", success)

			tx := database.NewTx("alice", "bob", 10, 1, 2, 3)
			block := database.Block{
				Header: database.BlockHeader{
					Height:        1,
					PrevBlockHash: genesisBlock.Hash(),
				},
				Beneficiary: "carol",
				Trans:       []database.Tx{tx},
			}

			if err := archive.Write(block); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the next block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write the next block.", success)

			if got := archive.Count(); got != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould count both blocks, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould count both blocks.", success)

			entry, err := archive.GetEntry(1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the entry back: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to read the entry back.", success)

			if !entry.Bloom.MightContain([]byte(tx.ID())) {
				t.Errorf("\t%s\tTest 0:\tShould report the stored transaction in the bloom filter.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report the stored transaction in the bloom filter.", success)
			}

			proof, err := entry.Tree.Proof(tx.ID())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a proof from the stored tree: %v", failed, err)
			}
			if !merkle.VerifyProof(entry.Tree.Root(), tx.ID(), proof) {
				t.Errorf("\t%s\tTest 0:\tShould verify the proof against the stored tree.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould verify the proof against the stored tree.", success)
			}
		}

		t.Log("\tTest 1:\tWhen access breaks the append order.")
		{
			archive := memory.New(2048, 3)

			block := database.Block{Header: database.BlockHeader{Height: 2}}
			if err := archive.Write(block); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject an out of order write.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject an out of order write.", success)

			if _, err := archive.GetBlock(0); !errors.Is(err, memory.ErrUnknownBlock) {
				t.Fatalf("\t%s\tTest 1:\tShould report an unknown height: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould report an unknown height.", success)
		}
	}
}
