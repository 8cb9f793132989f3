package network

import (
	"errors"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// ProtocolVersion is advertised in our outbound version message and used
// for encoding/decoding every subsequent message on the connection.
const ProtocolVersion = 70015

// ErrMalformedMessage wraps a framing error that indicates a peer sent a
// message exceeding the consensus-defined size limit or otherwise
// violating wire framing.
var ErrMalformedMessage = errors.New("network: malformed message")

// ErrNotEnoughData wraps a framing error caused by a short read: the
// connection closed or stalled mid-message.
var ErrNotEnoughData = errors.New("network: not enough data")

// WriteMessage frames msg with the given network's magic bytes and writes
// it to w.
func WriteMessage(w io.Writer, msg wire.Message, magic wire.BitcoinNet) error {
	_, err := wire.WriteMessageN(w, msg, ProtocolVersion, magic)
	return err
}

// ReadMessage reads and decodes one framed message from r, tagged with
// the given network's magic bytes.
func ReadMessage(r io.Reader, magic wire.BitcoinNet) (wire.Message, error) {
	_, msg, _, err := wire.ReadMessageN(r, ProtocolVersion, magic)
	if err != nil {
		return nil, classifyFramingError(err)
	}
	return msg, nil
}

func classifyFramingError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrNotEnoughData
	}
	var merr *wire.MessageError
	if errors.As(err, &merr) {
		return ErrMalformedMessage
	}
	return err
}
