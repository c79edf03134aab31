package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/internal/testutil"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fundedTx() *types.TxSkeleton {
	tx := types.NewTxSkeleton()
	tx.Inputs = []types.Cell{testutil.CapacityCell(1, 1000)}
	tx.Fee = 700
	tx.SigningMessage = common.Hash{1}
	return tx
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := New(&Config{Mode: "paper", Logger: logger})
	assert.Error(t, err)

	_, err = New(&Config{Mode: ModeLive, Logger: logger})
	assert.Error(t, err, "live mode requires signer and sender")

	exec, err := New(&Config{Mode: ModeDryRun, Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, ModeDryRun, exec.Mode())
}

func TestExecutor_SubmitLive(t *testing.T) {
	ledger := &testutil.FakeLedger{}
	signer := &testutil.FakeSigner{}
	exec, err := New(&Config{Mode: ModeLive, Signer: signer, Sender: ledger, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	hash, err := exec.Submit(context.Background(), fundedTx())

	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)
	assert.Equal(t, 1, signer.Signed)
	require.Len(t, ledger.Sent, 1)
	assert.Len(t, ledger.Sent[0].Inputs, 1)
}

func TestExecutor_SubmitDryRun(t *testing.T) {
	ledger := &testutil.FakeLedger{}
	signer := &testutil.FakeSigner{}
	exec, err := New(&Config{Mode: ModeDryRun, Signer: signer, Sender: ledger, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	hash, err := exec.Submit(context.Background(), fundedTx())

	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, hash)
	assert.Equal(t, 0, signer.Signed)
	assert.Empty(t, ledger.Sent)
}

func TestExecutor_SubmitErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	exec, err := New(&Config{
		Mode:   ModeLive,
		Signer: &testutil.FakeSigner{Err: errors.New("locked key")},
		Sender: &testutil.FakeLedger{},
		Logger: logger,
	})
	require.NoError(t, err)
	_, err = exec.Submit(context.Background(), fundedTx())
	assert.ErrorContains(t, err, "sign")

	exec, err = New(&Config{
		Mode:   ModeLive,
		Signer: &testutil.FakeSigner{},
		Sender: &testutil.FakeLedger{SendErr: errors.New("PoolRejectedRBF")},
		Logger: logger,
	})
	require.NoError(t, err)
	_, err = exec.Submit(context.Background(), fundedTx())
	assert.ErrorContains(t, err, "PoolRejectedRBF")
}
