package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/eventbus"
)

func TestPublishSubscribeDeliversInOrder(t *testing.T) {
	broker := eventbus.NewBroker(nil)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "run-1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, broker.Publish(ctx, "run-1", eventbus.NewStatusUpdate("run-1", "running", "a")))
	require.NoError(t, broker.Publish(ctx, "run-1", eventbus.NewNodeCompleted("run-1", "a", 5, 0, "completed")))

	first := waitEvent(t, sub.Events)
	assert.Equal(t, eventbus.EventTypeStatusUpdate, first.GetType())

	second := waitEvent(t, sub.Events)
	assert.Equal(t, eventbus.EventTypeNodeCompleted, second.GetType())
}

func TestPublishProgressUpdateRoundTripsThroughDecode(t *testing.T) {
	broker := eventbus.NewBroker(nil)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "run-1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, broker.Publish(ctx, "run-1", eventbus.NewProgressUpdate("run-1", "b", 1, 4, 25)))

	event := waitEvent(t, sub.Events)
	progress, ok := event.(*eventbus.ProgressUpdate)
	require.True(t, ok)
	assert.Equal(t, eventbus.EventTypeProgressUpdate, progress.GetType())
	assert.Equal(t, "b", progress.CurrentNode)
	assert.Equal(t, 1, progress.CompletedNodes)
	assert.Equal(t, 4, progress.TotalNodes)
	assert.InDelta(t, 25, progress.ProgressPercentage, 0.001)
}

func TestPublishWithNoSubscribersIsANoop(t *testing.T) {
	broker := eventbus.NewBroker(nil)

	err := broker.Publish(context.Background(), "lonely-run", eventbus.NewPong("lonely-run"))
	assert.NoError(t, err)
}

func TestCloseEndsTheStreamForEveryCurrentSubscriber(t *testing.T) {
	broker := eventbus.NewBroker(nil)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "run-2")
	require.NoError(t, err)

	broker.Close("run-2")

	select {
	case _, ok := <-sub.Events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected channel to be closed")
	}
}

func TestSubscribersDoNotSeeEachOthersEvents(t *testing.T) {
	broker := eventbus.NewBroker(nil)
	ctx := context.Background()

	subA, err := broker.Subscribe(ctx, "run-a")
	require.NoError(t, err)
	defer subA.Unsubscribe()

	subB, err := broker.Subscribe(ctx, "run-b")
	require.NoError(t, err)
	defer subB.Unsubscribe()

	require.NoError(t, broker.Publish(ctx, "run-a", eventbus.NewPong("run-a")))

	event := waitEvent(t, subA.Events)
	assert.Equal(t, "run-a", event.GetRunID())

	select {
	case <-subB.Events:
		t.Fatal("run-b subscriber should not receive run-a events")
	case <-time.After(50 * time.Millisecond):
	}
}

func waitEvent(t *testing.T, events <-chan eventbus.Event) eventbus.Event {
	t.Helper()

	select {
	case event, ok := <-events:
		require.True(t, ok)

		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")

		return nil
	}
}
