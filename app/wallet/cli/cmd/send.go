package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/witness"
	"github.com/spf13/cobra"
)

var (
	to      string
	amount  uint
	nonce   uint
	baseFee uint
	tip     uint
	detach  bool
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and send a transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := loadPrivateKey()
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(privateKey)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the funds.")
	sendCmd.Flags().UintVarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().UintVarP(&nonce, "nonce", "n", 0, "Unique id for the transaction.")
	sendCmd.Flags().UintVarP(&baseFee, "base-fee", "b", 2, "Burned fee for the transaction.")
	sendCmd.Flags().UintVarP(&tip, "tip", "c", 3, "Tip for the block beneficiary.")
	sendCmd.Flags().BoolVarP(&detach, "detach", "d", false, "Keep the signature off the transaction and submit it as a witness.")
}

// submitTx is the wire form the node expects on /v1/tx/submit.
type submitTx struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    uint   `json:"amount"`
	Nonce     uint   `json:"nonce"`
	BaseFee   uint   `json:"base_fee"`
	Tip       uint   `json:"tip"`
	Signature string `json:"signature,omitempty"`
	PublicKey string `json:"public_key"`
}

// submitWitness is the wire form the node expects on /v1/witness/submit.
type submitWitness struct {
	TxID      string `json:"tx_id"`
	Signature string `json:"signature"`
}

func sendWithDetails(privateKey *ecdsa.PrivateKey) {
	sender := strings.TrimSuffix(accountName, keyExtenstion)
	tx := database.NewTx(sender, to, amount, nonce, baseFee, tip)

	store := witness.New()
	signedTx, err := tx.Sign(privateKey, store, detach)
	if err != nil {
		log.Fatal(err)
	}

	// In detached mode the node must know the witness before it will admit
	// the transaction, so the signature is registered first.
	if detach {
		sig, exists := store.Get(signedTx.ID())
		if !exists {
			log.Fatal("detached signature missing from the local store")
		}

		sw := submitWitness{
			TxID:      signedTx.ID(),
			Signature: hexutil.Encode(sig),
		}
		post(fmt.Sprintf("%s/v1/witness/submit", url), sw)
	}

	st := submitTx{
		Sender:    signedTx.Sender,
		Recipient: signedTx.Recipient,
		Amount:    signedTx.Amount,
		Nonce:     signedTx.Nonce,
		BaseFee:   signedTx.BaseFee,
		Tip:       signedTx.Tip,
		PublicKey: hexutil.Encode(signedTx.PublicKey),
	}
	if len(signedTx.Signature) > 0 {
		st.Signature = hexutil.Encode(signedTx.Signature)
	}
	post(fmt.Sprintf("%s/v1/tx/submit", url), st)

	fmt.Println("tx id:", signedTx.ID())
}

func post(url string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("%s: %s", resp.Status, string(body))
	}

	fmt.Println(string(body))
}
