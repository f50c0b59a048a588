package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	difficulty  uint
	maxAttempts uint64
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine a single block at the specified difficulty",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().UintVarP(&difficulty, "difficulty", "d", 0, "Number of leading zero hex digits. Zero uses the genesis difficulty.")
	mineCmd.Flags().Uint64VarP(&maxAttempts, "max-attempts", "m", 0, "Bound on the nonce search. Zero uses the genesis bound.")
}

func mineRun(cmd *cobra.Command, args []string) error {
	st, err := buildState()
	if err != nil {
		return err
	}

	if err := submitSeed(st); err != nil {
		return err
	}

	gen := st.RetrieveGenesis()

	d := difficulty
	if d == 0 {
		d = gen.Difficulty
	}

	ma := maxAttempts
	if ma == 0 {
		ma = gen.MaxAttempts
	}

	block, err := st.MineCustomBlock(context.Background(), d, ma)
	if err != nil {
		return err
	}

	printBlock(block)
	printReport(st)

	return nil
}
