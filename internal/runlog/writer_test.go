package runlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"pingmon/internal/probe"
	mockstore "pingmon/internal/store/mock"
	"pingmon/internal/target"
)

var testTimestamp = time.Date(2025, 6, 1, 3, 4, 5, 0, time.UTC)

func testBatch() probe.Batch {
	return probe.Batch{
		Job:       "nightly",
		Timestamp: testTimestamp,
		Results: []probe.Result{
			{
				Target:     target.Target{Identifier: "8.8.8.8", Label: "google-dns"},
				Success:    true,
				Latency:    12300 * time.Microsecond,
				HasLatency: true,
			},
			{
				Target:  target.Target{Identifier: "10.0.0.1"},
				Success: false,
				Reason:  probe.ReasonTimeout,
			},
		},
		Invalid: []string{"bad..ip"},
	}
}

func TestWriter_WriteBatch(t *testing.T) {
	resultsDir := t.TempDir()
	w := NewWriter(resultsDir, nil, zap.NewNop())

	require.NoError(t, w.WriteBatch(context.Background(), testBatch(), probe.Params{}))

	success, err := os.ReadFile(filepath.Join(resultsDir, "20250601_030405"+SuccessSuffix))
	require.NoError(t, err)
	assert.Equal(t, "8.8.8.8\tSUCCESS\t12.3ms\tgoogle-dns\n", string(success))

	failed, err := os.ReadFile(filepath.Join(resultsDir, "20250601_030405"+FailedSuffix))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1\tFAILED\ttimeout\n", string(failed))

	invalid, err := os.ReadFile(filepath.Join(resultsDir, "20250601_030405"+InvalidSuffix))
	require.NoError(t, err)
	assert.Equal(t, "bad..ip\n", string(invalid))
}

func TestWriter_WriteBatch_OmitsEmptyCategories(t *testing.T) {
	resultsDir := t.TempDir()
	w := NewWriter(resultsDir, nil, zap.NewNop())

	batch := testBatch()
	batch.Results = batch.Results[:1] // success only
	batch.Invalid = nil
	require.NoError(t, w.WriteBatch(context.Background(), batch, probe.Params{}))

	_, err := os.Stat(filepath.Join(resultsDir, "20250601_030405"+SuccessSuffix))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(resultsDir, "20250601_030405"+FailedSuffix))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(resultsDir, "20250601_030405"+InvalidSuffix))
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_WriteBatch_ForwardsToStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mockstore.NewMockResultStore(ctrl)

	batch := testBatch()
	params := probe.Params{Timeout: 3 * time.Second, Count: 1, Workers: 10}
	mockStore.EXPECT().SaveBatch(gomock.Any(), batch, params).Return(nil)

	w := NewWriter(t.TempDir(), mockStore, zap.NewNop())
	assert.NoError(t, w.WriteBatch(context.Background(), batch, params))
}

func TestWriter_WriteBatch_StoreFailureDoesNotFailRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mockstore.NewMockResultStore(ctrl)
	mockStore.EXPECT().SaveBatch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("connection refused"))

	resultsDir := t.TempDir()
	w := NewWriter(resultsDir, mockStore, zap.NewNop())

	err := w.WriteBatch(context.Background(), testBatch(), probe.Params{})
	assert.NoError(t, err)

	// file logging unaffected by the store failure
	_, statErr := os.Stat(filepath.Join(resultsDir, "20250601_030405"+SuccessSuffix))
	assert.NoError(t, statErr)
}
