package database

import (
	"crypto/ecdsa"
	"crypto/sha256"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lbryio/lbcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

// addressVersion is the version byte prefixed to the public key hash before
// the base58 check encoding.
const addressVersion = 0x00

// AccountID represents a wallet address that is used to identify senders,
// receivers and stakeholders on the blockchain.
type AccountID string

// ToAccountID converts a base58 wallet address to an account and validates
// the address is formatted correctly.
func ToAccountID(address string) (AccountID, error) {
	a := AccountID(address)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to a wallet address:
// sha256 then ripemd160 of the raw X|Y key, version prefixed and base58
// check encoded.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	raw := crypto.FromECDSAPub(&pk)[1:]

	sha := sha256.Sum256(raw)

	r := ripemd160.New()
	r.Write(sha[:])

	return AccountID(base58.CheckEncode(r.Sum(nil), addressVersion))
}

// IsAccountID verifies whether the underlying data represents a valid
// wallet address.
func (a AccountID) IsAccountID() bool {
	const hashLength = ripemd160.Size

	payload, version, err := base58.CheckDecode(string(a))
	if err != nil {
		return false
	}

	return version == addressVersion && len(payload) == hashLength
}
