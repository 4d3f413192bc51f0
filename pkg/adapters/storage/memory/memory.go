package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
)

// OutcomeStore implements ports.OutcomeStore with in-memory maps. Used in
// tests and demo mode; nothing expires.
type OutcomeStore struct {
	states map[string]*domain.WorkflowState
	claims map[string]string
	mu     sync.RWMutex
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		states: make(map[string]*domain.WorkflowState),
		claims: make(map[string]string),
	}
}

// SaveState persists a copy of the state so later mutations by the caller
// are not observable through the store.
func (s *OutcomeStore) SaveState(ctx context.Context, state *domain.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stateCopy := *state
	s.states[state.WorkflowID] = &stateCopy
	return nil
}

// GetState retrieves a workflow state.
func (s *OutcomeStore) GetState(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrStateNotFound, workflowID)
	}

	stateCopy := *state
	return &stateCopy, nil
}

// ClaimTransaction binds a transaction ID to a workflow ID.
func (s *OutcomeStore) ClaimTransaction(ctx context.Context, transactionID, workflowID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.claims[transactionID]; ok {
		return existing, false, nil
	}

	s.claims[transactionID] = workflowID
	return workflowID, true, nil
}

// ReleaseTransaction removes a transaction-ID claim.
func (s *OutcomeStore) ReleaseTransaction(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, transactionID)
	return nil
}

// ClaimRun atomically transitions a submitted workflow to running. The
// status check and the transition happen under the same lock, so exactly
// one of any number of racing consumers claims the run.
func (s *OutcomeStore) ClaimRun(ctx context.Context, workflowID string) (*domain.WorkflowState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[workflowID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ports.ErrStateNotFound, workflowID)
	}
	if state.Status != domain.WorkflowStatusSubmitted {
		return nil, false, nil
	}

	now := time.Now()
	state.Status = domain.WorkflowStatusRunning
	state.StartedAt = &now

	stateCopy := *state
	return &stateCopy, true, nil
}

// ListStates lists all stored workflow states.
func (s *OutcomeStore) ListStates(ctx context.Context) ([]*domain.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]*domain.WorkflowState, 0, len(s.states))
	for _, state := range s.states {
		stateCopy := *state
		states = append(states, &stateCopy)
	}

	return states, nil
}
