package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(workflowID string) *domain.WorkflowState {
	return &domain.WorkflowState{
		WorkflowID: workflowID,
		Instruction: &domain.Instruction{
			TransactionID:      "txn-" + workflowID,
			BeneficiaryAccount: "acct-alice",
			Amount:             "100000",
		},
		Status:      domain.WorkflowStatusSubmitted,
		SubmittedAt: time.Now(),
	}
}

func TestSaveAndGetState(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	state := testState("wf-1")
	require.NoError(t, store.SaveState(ctx, state))

	got, err := store.GetState(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, domain.WorkflowStatusSubmitted, got.Status)

	// Mutating the caller's copy does not leak into the store.
	state.Status = domain.WorkflowStatusFailed
	got, err = store.GetState(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusSubmitted, got.Status)
}

func TestGetStateNotFound(t *testing.T) {
	store := NewOutcomeStore()

	_, err := store.GetState(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrStateNotFound)
}

func TestClaimTransaction(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	existing, claimed, err := store.ClaimTransaction(ctx, "txn-1", "wf-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "wf-1", existing)

	// A second claim for the same transaction returns the first binding.
	existing, claimed, err = store.ClaimTransaction(ctx, "txn-1", "wf-2")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "wf-1", existing)

	// Different transactions claim independently.
	_, claimed, err = store.ClaimTransaction(ctx, "txn-2", "wf-3")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestReleaseTransaction(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	_, claimed, err := store.ClaimTransaction(ctx, "txn-1", "wf-1")
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, store.ReleaseTransaction(ctx, "txn-1"))

	// The released transaction can be claimed again.
	existing, claimed, err := store.ClaimTransaction(ctx, "txn-1", "wf-2")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "wf-2", existing)
}

func TestClaimRun(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, testState("wf-1")))

	state, claimed, err := store.ClaimRun(ctx, "wf-1")
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, domain.WorkflowStatusRunning, state.Status)
	require.NotNil(t, state.StartedAt)

	// The transition is one-shot: the run cannot be claimed twice.
	_, claimed, err = store.ClaimRun(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, claimed)

	stored, err := store.GetState(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusRunning, stored.Status)
}

func TestClaimRunConcurrent(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, testState("wf-1")))

	const racers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, claimed, err := store.ClaimRun(ctx, "wf-1")
			if err == nil && claimed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestClaimRunNotFound(t *testing.T) {
	store := NewOutcomeStore()

	_, _, err := store.ClaimRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrStateNotFound)
}

func TestListStates(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, testState("wf-1")))
	require.NoError(t, store.SaveState(ctx, testState("wf-2")))

	states, err := store.ListStates(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}
