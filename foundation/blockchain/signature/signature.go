// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is the previous hash of the
// genesis block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Public key encodings accepted by DecodePublicKey. The raw form is what the
// wallet produces: X|Y without the 0x04 uncompressed marker.
const (
	rawPublicKeyLength          = 64
	uncompressedPublicKeyLength = 65
	compressedPublicKeyLength   = 33
)

// =============================================================================

// Hash returns the hex encoded sha256 of the canonical form of the value.
// Callers are responsible for handing in a value whose JSON encoding has its
// keys in lexicographic order; see the database package for those types.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Canonical returns the compact JSON encoding used as hash and signature
// input.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "canonical encoding")
	}

	return data, nil
}

// Sign uses the specified private key to sign the value. The signature is
// returned hex encoded in the 64 byte [R|S] form.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	digest, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Sign the digest with the private key to produce a signature.
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", errors.Wrap(err, "sign")
	}

	// Check the public key recovered from the digest and the signature.
	publicKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return "", errors.Wrap(err, "recover public key")
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, rs) {
		return "", errors.New("invalid signature")
	}

	return hex.EncodeToString(rs), nil
}

// Verify reports whether the hex encoded signature was produced over the
// value by the holder of the hex encoded public key. Any decoding problem is
// reported as a failed verification.
func Verify(value any, publicKeyHex string, signatureHex string) bool {
	publicKey, err := DecodePublicKey(publicKeyHex)
	if err != nil {
		return false
	}

	sig, err := decodeHex(signatureHex)
	if err != nil {
		return false
	}

	switch len(sig) {
	case crypto.SignatureLength:
		sig = sig[:crypto.RecoveryIDOffset]
	case crypto.RecoveryIDOffset:
	default:
		return false
	}

	digest, err := stamp(value)
	if err != nil {
		return false
	}

	return crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, sig)
}

// DecodePublicKey decodes a hex encoded secp256k1 public key. The raw 64
// byte X|Y form, the 65 byte uncompressed form and the 33 byte compressed
// form are accepted. The point must be on the curve.
func DecodePublicKey(publicKeyHex string) (*ecdsa.PublicKey, error) {
	data, err := decodeHex(publicKeyHex)
	if err != nil {
		return nil, err
	}

	switch len(data) {
	case rawPublicKeyLength:
		data = append([]byte{0x04}, data...)
		fallthrough

	case uncompressedPublicKeyLength:
		publicKey, err := crypto.UnmarshalPubkey(data)
		if err != nil {
			return nil, errors.Wrap(err, "unmarshal public key")
		}
		return publicKey, nil

	case compressedPublicKeyLength:
		publicKey, err := crypto.DecompressPubkey(data)
		if err != nil {
			return nil, errors.Wrap(err, "decompress public key")
		}
		return publicKey, nil
	}

	return nil, errors.Newf("invalid public key length %d", len(data))
}

// EncodePublicKey returns the public key hex encoded in the raw 64 byte
// X|Y form.
func EncodePublicKey(publicKey ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&publicKey)[1:])
}

// =============================================================================

// stamp returns the 32 byte digest that gets signed for the value.
func stamp(value any) ([]byte, error) {
	data, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(data)
	return digest[:], nil
}

// decodeHex decodes hex with or without a 0x prefix.
func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty hex string")
	}

	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}

	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex")
	}

	return data, nil
}
