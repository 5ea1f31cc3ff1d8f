// Package wallet generates and loads the key pairs used to sign
// transactions.
package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/signature"
)

// Wallet is a key pair and the address derived from it.
type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	Address    database.AccountID
}

// Info is the printable form of a wallet.
type Info struct {
	PrivateKey    string             `json:"private_key"`
	PublicKey     string             `json:"public_key"`
	WalletAddress database.AccountID `json:"wallet_address"`
}

// Generate constructs a wallet with a new secp256k1 key pair.
func Generate() (Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, errors.Wrap(err, "generating key")
	}

	return New(privateKey), nil
}

// New constructs a wallet for an existing private key.
func New(privateKey *ecdsa.PrivateKey) Wallet {
	return Wallet{
		PrivateKey: privateKey,
		Address:    database.PublicKeyToAccountID(privateKey.PublicKey),
	}
}

// Load reads the hex encoded private key stored at the path.
func Load(path string) (Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return Wallet{}, errors.Wrapf(err, "loading key %s", path)
	}

	return New(privateKey), nil
}

// Save writes the private key hex encoded to the path. The key file is only
// readable by the owner.
func (w Wallet) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating key folder")
	}

	if _, err := os.Stat(path); err == nil {
		return errors.Newf("key %s already exists", path)
	}

	return crypto.SaveECDSA(path, w.PrivateKey)
}

// PublicKey returns the hex encoded 64 byte public key.
func (w Wallet) PublicKey() string {
	return signature.EncodePublicKey(w.PrivateKey.PublicKey)
}

// Info returns the printable form of the wallet.
func (w Wallet) Info() Info {
	return Info{
		PrivateKey:    hex.EncodeToString(crypto.FromECDSA(w.PrivateKey)),
		PublicKey:     w.PublicKey(),
		WalletAddress: w.Address,
	}
}

// Send builds and signs a transaction from this wallet.
func (w Wallet) Send(receiver database.AccountID, amount uint64) (database.SignedTx, error) {
	return database.NewTx(w.Address, receiver, amount).Sign(w.PrivateKey)
}
