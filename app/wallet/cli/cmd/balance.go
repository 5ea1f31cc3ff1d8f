package cmd

import (
	"fmt"
	"net/http"

	"github.com/hqchain/hqchain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

type balance struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	TotalSupply uint64    `json:"total_supply"`
	Accounts    []balance `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		return err
	}

	fmt.Println("For Account:", w.Address)

	var bals balances
	if err := send(http.MethodGet, fmt.Sprintf("/v1/balances/list/%s", w.Address), nil, &bals); err != nil {
		return err
	}

	if len(bals.Accounts) > 0 {
		fmt.Println(bals.Accounts[0].Balance)
	}

	return nil
}
