// Package pushtx is the public entry point: given parsed transactions and
// a set of options it drives peer discovery, handshake, and broadcast,
// streaming progress back to the caller.
package pushtx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxID is the double-SHA256 transaction identifier produced by the
// consensus library's legacy serialization.
type TxID = chainhash.Hash

// ErrNotHex is returned when a transaction's hex encoding fails to parse.
var ErrNotHex = errors.New("pushtx: transaction is not valid hex")

// ErrInvalidTxBytes is returned when hex-decoded bytes fail consensus
// deserialization as a Bitcoin transaction.
var ErrInvalidTxBytes = errors.New("pushtx: invalid transaction bytes")

// Transaction is an immutable, already-parsed Bitcoin transaction. It wraps
// btcutil.Tx so the TxID is computed once and cached rather than
// re-hashed on every ID() call.
type Transaction struct {
	tx *btcutil.Tx
}

// ParseTransactionHex decodes a hex-encoded Bitcoin transaction.
func ParseTransactionHex(s string) (Transaction, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Transaction{}, ErrNotHex
	}
	return ParseTransactionBytes(raw)
}

// ParseTransactionBytes consensus-decodes a raw Bitcoin transaction.
func ParseTransactionBytes(raw []byte) (Transaction, error) {
	var msg wire.MsgTx
	if err := msg.Deserialize(bytes.NewReader(raw)); err != nil {
		return Transaction{}, ErrInvalidTxBytes
	}
	return Transaction{tx: btcutil.NewTx(&msg)}, nil
}

// ID returns the transaction's TxID.
func (t Transaction) ID() TxID {
	return *t.tx.Hash()
}

// MsgTx returns the underlying consensus-encodable transaction.
func (t Transaction) MsgTx() *wire.MsgTx {
	return t.tx.MsgTx()
}
