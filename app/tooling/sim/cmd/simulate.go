package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashlight/chain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

var blocks int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Submit the seed transactions and mine block by block",
	RunE:  simulateRun,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVarP(&blocks, "blocks", "n", 0, "Number of blocks to mine. Zero mines until the pool is empty.")
}

func simulateRun(cmd *cobra.Command, args []string) error {
	st, err := buildState()
	if err != nil {
		return err
	}

	if err := submitSeed(st); err != nil {
		return err
	}

	ctx := context.Background()

	mined := 0
	for {
		if blocks == 0 && st.QueryMempoolLength() == 0 {
			break
		}
		if blocks > 0 && mined == blocks {
			break
		}

		block, err := st.MineNewBlock(ctx)
		if err != nil {
			if errors.Is(err, state.ErrNoTransactions) {
				fmt.Println("pool below the exact block size, stopping")
				break
			}
			return err
		}

		printBlock(block)
		mined++
	}

	printReport(st)

	return nil
}
