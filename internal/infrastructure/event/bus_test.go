package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/shared"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panicMsg string
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "Test", uuid.New())
	return &e
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("dispatches to matching handlers only", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		matching := &recordingHandler{}
		other := &recordingHandler{}
		bus.Subscribe(matching, "BillCreated")
		bus.Subscribe(other, "BillDeleted")

		err := bus.Publish(context.Background(), testEvent("BillCreated"))

		require.NoError(t, err)
		assert.Len(t, matching.received, 1)
		assert.Empty(t, other.received)
	})

	t.Run("handler errors are swallowed", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{err: errors.New("boom")}
		healthy := &recordingHandler{}
		bus.Subscribe(failing, "BillCreated")
		bus.Subscribe(healthy, "BillCreated")

		err := bus.Publish(context.Background(), testEvent("BillCreated"))

		require.NoError(t, err)
		assert.Len(t, healthy.received, 1)
	})

	t.Run("handler panics do not reach the publisher", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.Subscribe(&recordingHandler{panicMsg: "bad handler"}, "BillCreated")

		assert.NotPanics(t, func() {
			_ = bus.Publish(context.Background(), testEvent("BillCreated"))
		})
	})

	t.Run("subscribe without types uses the handler's declared types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		h := &recordingHandler{types: []string{"BillUpdated"}}
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(context.Background(), testEvent("BillUpdated")))
		require.NoError(t, bus.Publish(context.Background(), testEvent("BillCreated")))

		assert.Len(t, h.received, 1)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		h := &recordingHandler{}
		bus.Subscribe(h, "BillCreated")
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(context.Background(), testEvent("BillCreated")))

		assert.Empty(t, h.received)
	})
}
