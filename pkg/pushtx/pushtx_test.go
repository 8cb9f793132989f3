package pushtx

import (
	"testing"
	"time"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan Info, timeout time.Duration) []Info {
	t.Helper()
	var out []Info
	deadline := time.After(timeout)
	for {
		select {
		case info, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, info)
		case <-deadline:
			t.Fatal("Broadcast never completed within the test deadline")
		}
	}
}

func TestBroadcastTorMustWithoutProxyFailsFast(t *testing.T) {
	txs := []Transaction{mustSampleTx(t)}
	infos := drain(t, Broadcast(txs, Opts{UseTor: TorMust}), 2*time.Second)

	require.NotEmpty(t, infos)
	last := infos[len(infos)-1]
	assert.Equal(t, InfoDone, last.Kind)
	assert.ErrorIs(t, last.Result.Err, ErrTorNotFound)
}

func TestBroadcastDryRunCompletesWithoutRealPeers(t *testing.T) {
	tx := mustSampleTx(t)
	custom, err := netaddr.ParseService("127.0.0.1:1")
	require.NoError(t, err)

	opts := Opts{
		Network:     bitcoinnet.Regtest,
		CustomPeers: []netaddr.Service{custom},
		TargetPeers: 1,
		MaxTime:     4 * time.Second,
		DryRun:      true,
	}
	infos := drain(t, Broadcast([]Transaction{tx}, opts), 6*time.Second)

	require.NotEmpty(t, infos)
	assert.Equal(t, InfoResolvingPeers, infos[0].Kind)

	last := infos[len(infos)-1]
	require.Equal(t, InfoDone, last.Kind)
	require.NoError(t, last.Result.Err)
	assert.Contains(t, last.Result.Report.Success, tx.ID())
}

func mustSampleTx(t *testing.T) Transaction {
	t.Helper()
	tx, err := ParseTransactionHex(sampleTxHex(t))
	require.NoError(t, err)
	return tx
}
