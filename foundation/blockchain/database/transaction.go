package database

import (
	"crypto/ecdsa"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/signature"
)

// =============================================================================

// Tx is the transactional information between two parties. This is the
// payload that gets signed.
//
// Fields are declared in lexicographic order of their JSON names. The JSON
// encoding of this type is the canonical signing payload.
type Tx struct {
	Amount   uint64    `json:"amount"`   // Coins moving from sender to receiver.
	Receiver AccountID `json:"receiver"` // Account receiving the amount.
	Sender   AccountID `json:"sender"`   // Account paying the amount.
}

// NewTx constructs a new transaction.
func NewTx(sender AccountID, receiver AccountID, amount uint64) Tx {
	return Tx{
		Amount:   amount,
		Receiver: receiver,
		Sender:   sender,
	}
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	sig, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx:              tx,
		SenderPublicKey: signature.EncodePublicKey(privateKey.PublicKey),
		Signature:       sig,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain, and how
// the transaction is recorded inside a block.
type SignedTx struct {
	Tx
	SenderPublicKey string `json:"sender_public_key"` // Hex encoded secp256k1 public key of the sender.
	Signature       string `json:"signature"`         // Hex encoded [R|S] signature over Tx.
}

// Validate verifies the transaction has a proper signature for the data
// claimed to be signed under the supplied public key.
func (tx SignedTx) Validate() error {
	if tx.Sender == "" || tx.Receiver == "" {
		return errors.New("sender and receiver are required")
	}

	if tx.Amount > math.MaxInt64 {
		return errors.Newf("amount %d exceeds the largest balance %d", tx.Amount, int64(math.MaxInt64))
	}

	if !signature.Verify(tx.Tx, tx.SenderPublicKey, tx.Signature) {
		return ErrInvalidSignature
	}

	return nil
}

// Verify reports whether the signature verifies. It never fails for
// malformed input, it reports false.
func (tx SignedTx) Verify() bool {
	return signature.Verify(tx.Tx, tx.SenderPublicKey, tx.Signature)
}

// Equals reports whether the two transactions carry the same data and the
// same signature.
func (tx SignedTx) Equals(otherTx SignedTx) bool {
	return tx == otherTx
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	sig := tx.Signature
	if len(sig) > 16 {
		sig = sig[:16]
	}

	return fmt.Sprintf("%s->%s:%d:%s", tx.Sender, tx.Receiver, tx.Amount, sig)
}
