package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/hqchain/hqchain/foundation/blockchain/signature"
	"github.com/hqchain/hqchain/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Wallet(t *testing.T) {
	t.Log("Given the need to generate and reload wallets.")
	{
		w, err := wallet.Generate()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a wallet: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a wallet.", success)

		info := w.Info()
		if len(info.PrivateKey) != 64 || len(info.PublicKey) != 128 {
			t.Fatalf("\t%s\tShould hex encode the keys: %d %d", failed, len(info.PrivateKey), len(info.PublicKey))
		}
		if !info.WalletAddress.IsAccountID() {
			t.Fatalf("\t%s\tShould derive a valid address: %s", failed, info.WalletAddress)
		}
		t.Logf("\t%s\tShould describe the wallet.", success)

		path := filepath.Join(t.TempDir(), "keys", "alice.ecdsa")
		if err := w.Save(path); err != nil {
			t.Fatalf("\t%s\tShould be able to save the key: %s", failed, err)
		}
		if err := w.Save(path); err == nil {
			t.Fatalf("\t%s\tShould not overwrite an existing key.", failed)
		}
		t.Logf("\t%s\tShould save the key once.", success)

		loaded, err := wallet.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the key: %s", failed, err)
		}
		if loaded.Address != w.Address {
			t.Fatalf("\t%s\tShould load the same address: %s != %s", failed, loaded.Address, w.Address)
		}
		t.Logf("\t%s\tShould load the same address.", success)

		tx, err := loaded.Send("bob", 10)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
		}
		if err := tx.Validate(); err != nil {
			t.Fatalf("\t%s\tShould produce a valid transaction: %s", failed, err)
		}
		if tx.SenderPublicKey != w.PublicKey() || !signature.Verify(tx.Tx, tx.SenderPublicKey, tx.Signature) {
			t.Fatalf("\t%s\tShould sign with the wallet key.", failed)
		}
		t.Logf("\t%s\tShould produce a valid transaction.", success)
	}
}
