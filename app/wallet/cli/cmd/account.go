package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashlight/chain/foundation/keystore"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the accounts in the keystore and the selected public key",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	ks, err := keystore.New(accountPath)
	if err != nil {
		log.Fatal(err)
	}

	for _, account := range ks.Accounts() {
		fmt.Println(account)
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		return
	}

	fmt.Println("public key:", hexutil.Encode(crypto.FromECDSAPub(&privateKey.PublicKey)))
}
