package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OutcomeStore implements ports.OutcomeStore using Redis. Workflow states
// and transaction-ID claims share the same TTL, so the idempotency window
// and the state retention window always coincide.
type OutcomeStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewOutcomeStore creates a new Redis outcome store.
func NewOutcomeStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *OutcomeStore {
	return &OutcomeStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// SaveState persists a workflow state with the retention TTL.
func (s *OutcomeStore) SaveState(ctx context.Context, state *domain.WorkflowState) error {
	key := getStateKey(state.WorkflowID)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Debug("state saved",
		zap.String("workflow_id", state.WorkflowID),
		zap.String("status", string(state.Status)))

	return nil
}

// GetState retrieves a workflow state.
func (s *OutcomeStore) GetState(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	key := getStateKey(workflowID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", ports.ErrStateNotFound, workflowID)
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	var state domain.WorkflowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// ClaimTransaction atomically binds a transaction ID to a workflow ID via
// SETNX. A lost claim returns the already-bound workflow ID.
func (s *OutcomeStore) ClaimTransaction(ctx context.Context, transactionID, workflowID string) (string, bool, error) {
	key := getTransactionKey(transactionID)

	claimed, err := s.client.SetNX(ctx, key, workflowID, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to claim transaction: %w", err)
	}
	if claimed {
		return workflowID, true, nil
	}

	existing, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to read transaction claim: %w", err)
	}

	return existing, false, nil
}

// ReleaseTransaction removes a transaction-ID claim.
func (s *OutcomeStore) ReleaseTransaction(ctx context.Context, transactionID string) error {
	if err := s.client.Del(ctx, getTransactionKey(transactionID)).Err(); err != nil {
		return fmt.Errorf("failed to release transaction claim: %w", err)
	}
	return nil
}

// ClaimRun atomically transitions a submitted workflow to running using an
// optimistic WATCH transaction on the state key. A concurrent write aborts
// the transaction, which counts as losing the claim.
func (s *OutcomeStore) ClaimRun(ctx context.Context, workflowID string) (*domain.WorkflowState, bool, error) {
	key := getStateKey(workflowID)

	var claimed *domain.WorkflowState
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return fmt.Errorf("%w: %s", ports.ErrStateNotFound, workflowID)
		}
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}

		var state domain.WorkflowState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to unmarshal state: %w", err)
		}
		if state.Status != domain.WorkflowStatusSubmitted {
			return nil
		}

		now := time.Now()
		state.Status = domain.WorkflowStatusRunning
		state.StartedAt = &now

		payload, err := json.Marshal(&state)
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		claimed = &state
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return claimed, claimed != nil, nil
}

// ListStates lists all retained workflow states.
func (s *OutcomeStore) ListStates(ctx context.Context) ([]*domain.WorkflowState, error) {
	pattern := "porflow:state:*"

	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	states := make([]*domain.WorkflowState, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var state domain.WorkflowState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}

		states = append(states, &state)
	}

	return states, nil
}

// getStateKey returns the Redis key for a workflow state.
func getStateKey(workflowID string) string {
	return fmt.Sprintf("porflow:state:%s", workflowID)
}

// getTransactionKey returns the Redis key for a transaction-ID claim.
func getTransactionKey(transactionID string) string {
	return fmt.Sprintf("porflow:txn:%s", transactionID)
}
