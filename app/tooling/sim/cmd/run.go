package cmd

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/genesis"
	"github.com/hashlight/chain/foundation/blockchain/state"
	"github.com/hashlight/chain/foundation/blockchain/witness"
)

// seedTx mirrors one entry of the seed transactions fixture.
type seedTx struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    uint   `json:"amount"`
	Nonce     uint   `json:"nonce"`
	BaseFee   uint   `json:"base_fee"`
	Tip       uint   `json:"tip"`
	Detach    bool   `json:"detach"`
}

// loadSeed reads the ordered seed transactions fixture.
func loadSeed(path string) ([]seedTx, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed []seedTx
	if err := json.Unmarshal(content, &seed); err != nil {
		return nil, err
	}

	return seed, nil
}

// buildState constructs the chain state from the genesis fixture.
func buildState() (*state.State, error) {
	gen, err := genesis.LoadFile(genesisPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load genesis file: %w", err)
	}

	ev := func(v string, args ...any) {
		if verbose {
			fmt.Printf(v+"\n", args...)
		}
	}

	return state.New(state.Config{
		Beneficiary: beneficiary,
		Host:        "sim",
		Genesis:     gen,
		EvHandler:   ev,
	})
}

// submitSeed signs and submits the seed transactions in order. Every
// distinct sender gets an ephemeral key pair for the run. Detached entries
// register their witness before the transaction itself is submitted, the
// admission check will not pass otherwise.
func submitSeed(st *state.State) error {
	seed, err := loadSeed(seedPath)
	if err != nil {
		return fmt.Errorf("unable to load seed file: %w", err)
	}

	keys := make(map[string]*ecdsa.PrivateKey)

	for _, entry := range seed {
		privateKey, exists := keys[entry.Sender]
		if !exists {
			if privateKey, err = crypto.GenerateKey(); err != nil {
				return err
			}
			keys[entry.Sender] = privateKey
		}

		tx := database.NewTx(entry.Sender, entry.Recipient, entry.Amount, entry.Nonce, entry.BaseFee, entry.Tip)

		store := witness.New()
		signedTx, err := tx.Sign(privateKey, store, entry.Detach)
		if err != nil {
			return err
		}

		if entry.Detach {
			sig, _ := store.Get(signedTx.ID())
			if err := st.SubmitWitness(signedTx.ID(), sig); err != nil {
				return err
			}
		}

		if err := st.SubmitTransaction(signedTx); err != nil {
			return err
		}
	}

	return nil
}

// printBlock writes one report line for a mined block plus its transactions.
func printBlock(block database.Block) {
	fmt.Printf("block %d: txs=%d nonce=%d hash=%s\n", block.Header.Height, len(block.Trans), block.Header.Nonce, block.Hash())
	for _, tx := range block.Trans {
		fmt.Printf("    %s  %s -> %s  amount=%d fee=%d tip=%d\n", tx.ID(), tx.Sender, tx.Recipient, tx.Amount, tx.BaseFee, tx.Tip)
	}
}

// printReport writes the final balances, the totals and the conservation
// check.
func printReport(st *state.State) {
	balances := st.RetrieveBalances()

	accounts := make([]string, 0, len(balances))
	for account := range balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	fmt.Println("final balances")
	var sum uint
	for _, account := range accounts {
		fmt.Printf("    %-12s %d\n", account, balances[account])
		sum += balances[account]
	}

	supply := st.QuerySupply()
	fmt.Printf("initial=%d mined=%d burned=%d circulating=%d\n", supply.Initial, supply.Mined, supply.Burned, supply.Circulating)

	if sum == supply.Initial+supply.Mined-supply.Burned {
		fmt.Println("conservation: ok")
		return
	}

	fmt.Printf("conservation: VIOLATED sum=%d\n", sum)
}
