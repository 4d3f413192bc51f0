package pipeline

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"github.com/shopspring/decimal"
)

// fakeMetrics is a no-op collector that counts reserve decisions. The
// Prometheus collector registers globally, so tests use this instead.
type fakeMetrics struct {
	mu             sync.Mutex
	reserveChecks  map[string]int
	stageStatuses  map[string]string
	workflowCounts map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		reserveChecks:  make(map[string]int),
		stageStatuses:  make(map[string]string),
		workflowCounts: make(map[string]int),
	}
}

func (m *fakeMetrics) RecordInstructionSubmitted(status string) {}

func (m *fakeMetrics) RecordWorkflowCompleted(outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowCounts[outcome]++
}

func (m *fakeMetrics) RecordStageExecuted(stage, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stageStatuses[stage] = status
}

func (m *fakeMetrics) RecordReserveCheck(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveChecks[decision]++
}

func (m *fakeMetrics) RecordWorkerPoolStatus(idle, busy, stopped int) {}

// fakeBus records published events and ignores subscriptions. Setting
// failPublishes makes that many Publish calls fail.
type fakeBus struct {
	mu            sync.Mutex
	events        []*domain.Event
	failPublishes int
}

func (b *fakeBus) Publish(ctx context.Context, topic string, event *domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPublishes > 0 {
		b.failPublishes--
		return errors.New("bus unavailable")
	}
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) eventTypes() []domain.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]domain.EventType, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.Type)
	}
	return types
}

// fakeReserve returns a fixed snapshot, or errors when err is set.
type fakeReserve struct {
	value decimal.Decimal
	err   error
	calls int
}

func (r *fakeReserve) Snapshot(ctx context.Context) (*domain.ReserveSnapshot, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &domain.ReserveSnapshot{
		TotalReserveValue: r.value,
		AsOf:              time.Now(),
	}, nil
}

// fakeSupply returns a fixed issued supply.
type fakeSupply struct {
	supply *big.Int
	err    error
}

func (s *fakeSupply) CurrentSupply(ctx context.Context) (*big.Int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.supply, nil
}

// mintCall captures one invocation of the mint executor.
type mintCall struct {
	checkedBeneficiary string
	mintRecipient      string
	amount             *big.Int
	bankReference      string
}

// scriptedMint returns a fixed result or error and records its calls.
type scriptedMint struct {
	result *domain.StageResult
	err    error
	panics bool
	calls  []mintCall
}

func (m *scriptedMint) Run(ctx context.Context, checkedBeneficiary, mintRecipient string, amount *big.Int, bankReference string) (*domain.StageResult, error) {
	m.calls = append(m.calls, mintCall{
		checkedBeneficiary: checkedBeneficiary,
		mintRecipient:      mintRecipient,
		amount:             amount,
		bankReference:      bankReference,
	})
	if m.panics {
		panic("mint executor fault")
	}
	return m.result, m.err
}

// transferCall captures one invocation of the transfer executor.
type transferCall struct {
	sender                 string
	destinationBeneficiary string
	destinationChainID     uint64
	amount                 *big.Int
}

// scriptedTransfer returns a fixed result or error and records its calls.
type scriptedTransfer struct {
	result *domain.StageResult
	err    error
	calls  []transferCall
}

func (t *scriptedTransfer) Run(ctx context.Context, sender, destinationBeneficiary string, destinationChainID uint64, amount *big.Int, bankReference string) (*domain.StageResult, error) {
	t.calls = append(t.calls, transferCall{
		sender:                 sender,
		destinationBeneficiary: destinationBeneficiary,
		destinationChainID:     destinationChainID,
		amount:                 amount,
	})
	return t.result, t.err
}

// scriptedSubmitter returns a fixed receipt or error, optionally blocking
// until the context is done. It records the last submitted payload.
type scriptedSubmitter struct {
	receipt *ports.SubmitReceipt
	err     error
	block   bool
	payload []byte
}

func (s *scriptedSubmitter) SubmitReport(ctx context.Context, payload []byte) (*ports.SubmitReceipt, error) {
	s.payload = payload
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.receipt, s.err
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
