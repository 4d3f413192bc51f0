package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(eventType domain.EventType) *domain.Event {
	return &domain.Event{
		ID:         "evt-1",
		Type:       eventType,
		WorkflowID: "wf-1",
		Timestamp:  time.Now(),
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewInMemoryEventBus()
	ctx := context.Background()

	var received []*domain.Event
	require.NoError(t, bus.Subscribe(ctx, "workflow.events", func(ctx context.Context, event *domain.Event) error {
		received = append(received, event)
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "workflow.events", testEvent(domain.EventTypeInstructionSubmitted)))
	require.Len(t, received, 1)
	assert.Equal(t, domain.EventTypeInstructionSubmitted, received[0].Type)
}

func TestPublishFansOut(t *testing.T) {
	bus := NewInMemoryEventBus()
	ctx := context.Background()

	var first, second int
	require.NoError(t, bus.Subscribe(ctx, "workflow.events", func(ctx context.Context, event *domain.Event) error {
		first++
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, "workflow.events", func(ctx context.Context, event *domain.Event) error {
		second++
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "workflow.events", testEvent(domain.EventTypeWorkflowCompleted)))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestPublishIsolatesTopics(t *testing.T) {
	bus := NewInMemoryEventBus()
	ctx := context.Background()

	var count int
	require.NoError(t, bus.Subscribe(ctx, "other.topic", func(ctx context.Context, event *domain.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "workflow.events", testEvent(domain.EventTypeWorkflowCompleted)))
	assert.Zero(t, count)
}

func TestPublishSwallowsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus()
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, "workflow.events", func(ctx context.Context, event *domain.Event) error {
		return errors.New("handler fault")
	}))

	assert.NoError(t, bus.Publish(ctx, "workflow.events", testEvent(domain.EventTypeWorkflowFailed)))
}

func TestClose(t *testing.T) {
	bus := NewInMemoryEventBus()
	ctx := context.Background()

	var count int
	require.NoError(t, bus.Subscribe(ctx, "workflow.events", func(ctx context.Context, event *domain.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(ctx, "workflow.events", testEvent(domain.EventTypeWorkflowCompleted)))
	assert.Zero(t, count)
}
