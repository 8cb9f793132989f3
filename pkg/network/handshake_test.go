package network

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
)

func runSequence(t *testing.T, msgs []wire.Message) []HandshakeEvent {
	t.Helper()
	var h HandshakeState
	var out []HandshakeEvent
	for _, m := range msgs {
		var v *wire.MsgVersion
		if mv, ok := m.(*wire.MsgVersion); ok {
			v = mv
		}
		out = append(out, h.Update(ClassifyMessage(m), v))
	}
	return out
}

func TestHandshakeVersionThenVerack(t *testing.T) {
	out := runSequence(t, []wire.Message{&wire.MsgVersion{}, &wire.MsgVerAck{}})
	assert.Equal(t, []HandshakeEvent{SendVerack, Done}, out)
}

func TestHandshakeOptionalExtensionsInEitherOrder(t *testing.T) {
	out := runSequence(t, []wire.Message{
		&wire.MsgVersion{}, &wire.MsgSendAddrV2{}, &wire.MsgWtxidRelay{}, &wire.MsgVerAck{},
	})
	assert.Equal(t, []HandshakeEvent{SendVerack, Wait, Wait, Done}, out)
}

func TestHandshakeVerackWithoutVersionIsViolation(t *testing.T) {
	out := runSequence(t, []wire.Message{&wire.MsgVerAck{}})
	assert.Equal(t, []HandshakeEvent{Violation}, out)
}

func TestHandshakeDoubleVersionIsViolation(t *testing.T) {
	out := runSequence(t, []wire.Message{&wire.MsgVersion{}, &wire.MsgVersion{}})
	assert.Equal(t, []HandshakeEvent{SendVerack, Violation}, out)
}

func TestHandshakeRepeatedExtensionIsViolation(t *testing.T) {
	out := runSequence(t, []wire.Message{
		&wire.MsgVersion{}, &wire.MsgSendAddrV2{}, &wire.MsgSendAddrV2{},
	})
	assert.Equal(t, []HandshakeEvent{SendVerack, Wait, Violation}, out)
}
