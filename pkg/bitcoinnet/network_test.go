package bitcoinnet

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
)

func TestMagicPerNetwork(t *testing.T) {
	assert.Equal(t, wire.MainNet, Mainnet.Magic())
	assert.Equal(t, wire.TestNet3, Testnet.Magic())
	assert.Equal(t, wire.TestNet, Regtest.Magic())
	assert.Equal(t, wire.SigNet, Signet.Magic())
}

func TestDefaultPortPerNetwork(t *testing.T) {
	assert.EqualValues(t, 8333, Mainnet.DefaultPort())
	assert.EqualValues(t, 18333, Testnet.DefaultPort())
	assert.EqualValues(t, 18444, Regtest.DefaultPort())
	assert.EqualValues(t, 38333, Signet.DefaultPort())
}

func TestDNSSeedsRegtestEmpty(t *testing.T) {
	assert.Empty(t, Regtest.DNSSeeds())
}

func TestStringNames(t *testing.T) {
	assert.Equal(t, "mainnet", Mainnet.String())
	assert.Equal(t, "testnet", Testnet.String())
	assert.Equal(t, "regtest", Regtest.String())
	assert.Equal(t, "signet", Signet.String())
}
