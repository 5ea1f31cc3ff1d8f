package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/nameservice"
)

func TestLookup(t *testing.T) {
	dir := t.TempDir()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	if err := crypto.SaveECDSA(filepath.Join(dir, "miner1.ecdsa"), key); err != nil {
		t.Fatalf("Should be able to save the key: %s", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatalf("Should be able to write a file: %s", err)
	}

	ns, err := nameservice.New(dir)
	if err != nil {
		t.Fatalf("Should be able to load the folder: %s", err)
	}

	accountID := database.PublicKeyToAccountID(key.PublicKey)
	if name := ns.Lookup(accountID); name != "miner1" {
		t.Fatalf("Should resolve the account to its name: %s", name)
	}

	if got, ok := ns.AccountID("miner1"); !ok || got != accountID {
		t.Fatalf("Should resolve the name to its account: %s", got)
	}

	if name := ns.Lookup("unknown"); name != "unknown" {
		t.Fatalf("Should fall back to the account itself: %s", name)
	}

	if names := ns.Names(); len(names) != 1 {
		t.Fatalf("Should only load key files: %v", names)
	}

	empty, err := nameservice.New(filepath.Join(dir, "missing"))
	if err != nil || len(empty.Copy()) != 0 {
		t.Fatalf("Should treat a missing folder as empty: %v", err)
	}
}
