package pushtx

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTxHex(t *testing.T) string {
	t.Helper()
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil, nil))
	msg.AddTxOut(wire.NewTxOut(0, nil))
	var buf bytes.Buffer
	require.NoError(t, msg.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

func TestParseTransactionHexTxIDStableAcrossRuns(t *testing.T) {
	h := sampleTxHex(t)

	tx1, err := ParseTransactionHex(h)
	require.NoError(t, err)
	tx2, err := ParseTransactionHex(h)
	require.NoError(t, err)

	assert.Equal(t, tx1.ID(), tx2.ID())
}

func TestParseTransactionHexRejectsGarbage(t *testing.T) {
	_, err := ParseTransactionHex("not hex at all!!")
	assert.ErrorIs(t, err, ErrNotHex)
}

func TestParseTransactionHexRejectsInvalidBytes(t *testing.T) {
	_, err := ParseTransactionHex(hex.EncodeToString([]byte{0xde, 0xad, 0xbe, 0xef}))
	assert.ErrorIs(t, err, ErrInvalidTxBytes)
}

func TestParseTransactionHexTrimsWhitespace(t *testing.T) {
	h := sampleTxHex(t)
	_, err := ParseTransactionHex("  " + h + "\n")
	assert.NoError(t, err)
}
