package cmd

import (
	"fmt"
	"net/http"

	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction and submit it to the node",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the receiver.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		return err
	}

	signedTx, err := w.Send(database.AccountID(to), amount)
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := send(http.MethodPost, "/v1/tx/submit", signedTx, &resp); err != nil {
		return err
	}

	fmt.Println(resp.Status)
	return nil
}
