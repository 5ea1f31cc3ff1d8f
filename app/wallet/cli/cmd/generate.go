package cmd

import (
	"github.com/hqchain/hqchain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair and print the wallet",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	w, err := wallet.Generate()
	if err != nil {
		return err
	}

	if err := w.Save(getPrivateKeyPath()); err != nil {
		return err
	}

	return printJSON(w.Info())
}
