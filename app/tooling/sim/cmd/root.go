// Package cmd contains the simulator command surface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashlight/chain/foundation/blockchain/database"
	"github.com/hashlight/chain/foundation/blockchain/light"
	"github.com/hashlight/chain/foundation/blockchain/mempool"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
	"github.com/hashlight/chain/foundation/blockchain/storage/memory"
	"github.com/spf13/cobra"
)

// Exit codes for the command surface. Scripts branch on these to tell a
// clean run from a bad reference and from mining exhaustion.
const (
	exitOK        = 0
	exitBadRef    = 2
	exitExhausted = 3
)

var (
	genesisPath string
	seedPath    string
	beneficiary string
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	rootCmd.PersistentFlags().StringVarP(&seedPath, "seed", "s", "zblock/seed.json", "Path to the seed transactions file.")
	rootCmd.PersistentFlags().StringVarP(&beneficiary, "beneficiary", "b", "miner1", "Account credited with rewards and tips.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Print the internal event stream.")
}

var rootCmd = &cobra.Command{
	Use:           "sim",
	Short:         "Single process chain simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(exitOK)
	}

	fmt.Fprintln(os.Stderr, "sim:", err)

	switch {
	case errors.Is(err, database.ErrMiningExhausted):
		os.Exit(exitExhausted)

	case errors.Is(err, memory.ErrUnknownBlock),
		errors.Is(err, light.ErrUnknownHeader),
		errors.Is(err, merkle.ErrNotFound),
		errors.Is(err, mempool.ErrDuplicate),
		errors.Is(err, database.ErrInsufficientFunds),
		errors.Is(err, database.ErrInvalidSignature):
		os.Exit(exitBadRef)

	default:
		os.Exit(1)
	}
}
