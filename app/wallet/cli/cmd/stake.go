package cmd

import (
	"fmt"
	"net/http"

	"github.com/hqchain/hqchain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var stakeAmount uint64

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Stake coins for the wallet address",
	RunE:  stakeRun,
}

func init() {
	rootCmd.AddCommand(stakeCmd)
	stakeCmd.Flags().Uint64VarP(&stakeAmount, "amount", "v", 0, "Amount to stake.")
}

func stakeRun(cmd *cobra.Command, args []string) error {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		return err
	}

	ns := struct {
		Stakeholder string `json:"stakeholder"`
		Amount      uint64 `json:"amount"`
	}{
		Stakeholder: string(w.Address),
		Amount:      stakeAmount,
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := send(http.MethodPost, "/v1/stake/add", ns, &resp); err != nil {
		return err
	}

	fmt.Println(resp.Status)
	return nil
}
