package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// subscriberBufferSize bounds how many unconsumed events a slow subscriber
// may accumulate before the broker starts dropping the oldest one.
const subscriberBufferSize = 64

// Broker fans out events to per-run subscribers over an in-memory
// watermill gochannel transport, one logical topic per run_id. A slow
// subscriber never blocks the publisher: once its buffer is full the
// broker drops the oldest pending event and marks the stream lossy.
type Broker struct {
	pubsub *gochannel.GoChannel

	mu   sync.Mutex
	subs map[string]map[string]*subscriber
}

type subscriber struct {
	out   chan Event
	lossy atomic.Bool
}

// NewBroker returns a Broker backed by a fresh in-memory gochannel
// instance. logger may be nil, in which case watermill's no-op logger is
// used.
func NewBroker(logger watermill.LoggerAdapter) *Broker {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            subscriberBufferSize,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	return &Broker{pubsub: pubsub, subs: make(map[string]map[string]*subscriber)}
}

// Publish fans event out to every current subscriber of runID. Publishing
// to a run with no subscribers is a no-op beyond the in-memory send,
// matching §4.7 (events are not buffered beyond what subscribers need; the
// canonical replay source is the ExecutionLog table).
func (b *Broker) Publish(ctx context.Context, runID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewULID(), payload)

	if err := b.pubsub.Publish(runID, msg); err != nil {
		return fmt.Errorf("failed to publish event for run %s: %w", runID, err)
	}

	return nil
}

// Subscription is a live, per-run event stream along with the controls a
// caller needs to manage it.
type Subscription struct {
	Events      <-chan Event
	Unsubscribe func()
	Lossy       func() bool
}

// Subscribe returns a live event stream for runID. Subscribe itself never
// synthesizes a terminal event for an already-terminal run; callers that
// need the late-join behavior of §4.7 check the Run row first and only
// call Subscribe for runs still in flight.
func (b *Broker) Subscribe(ctx context.Context, runID string) (*Subscription, error) {
	messages, err := b.pubsub.Subscribe(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to run %s: %w", runID, err)
	}

	sub := &subscriber{out: make(chan Event, subscriberBufferSize)}

	subID := watermill.NewULID()

	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = make(map[string]*subscriber)
	}
	b.subs[runID][subID] = sub
	b.mu.Unlock()

	go pump(messages, sub)

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subs[runID], subID)

		if len(b.subs[runID]) == 0 {
			delete(b.subs, runID)
		}
		b.mu.Unlock()
	}

	return &Subscription{Events: sub.out, Unsubscribe: unsubscribe, Lossy: sub.IsLossy}, nil
}

func pump(messages <-chan *message.Message, sub *subscriber) {
	for msg := range messages {
		event, err := decode(msg.Payload)
		if err != nil {
			msg.Nack()

			continue
		}

		deliver(sub, event)
		msg.Ack()
	}
}

// deliver sends event to sub.out, dropping the oldest buffered event and
// marking the stream lossy if the buffer is saturated.
func deliver(sub *subscriber, event Event) {
	select {
	case sub.out <- event:
		return
	default:
	}

	select {
	case <-sub.out:
	default:
	}

	sub.lossy.Store(true)

	select {
	case sub.out <- event:
	default:
	}
}

// IsLossy reports whether any event has been dropped for the subscriber
// currently occupying sub.out. Exposed for callers (the WebSocket handler)
// that want to signal lossy delivery to the client.
func (s *subscriber) IsLossy() bool {
	return s.lossy.Load()
}

// Close marks runID as finished: every current subscriber's channel is
// closed, signalling end-of-stream once their buffered events drain. The
// caller invokes this after publishing the run's WorkflowCompleted event.
func (b *Broker) Close(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[runID] {
		close(sub.out)
	}

	delete(b.subs, runID)
}

func decode(payload []byte) (Event, error) {
	var probe struct {
		Type EventType `json:"type"`
	}

	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("failed to probe event type: %w", err)
	}

	var event Event

	switch probe.Type {
	case EventTypeStatusUpdate:
		event = &StatusUpdate{}
	case EventTypeNodeCompleted:
		event = &NodeCompleted{}
	case EventTypeWorkflowCompleted:
		event = &WorkflowCompleted{}
	case EventTypeProgressUpdate:
		event = &ProgressUpdate{}
	case EventTypeLogEntry:
		event = &LogEntry{}
	case EventTypeError:
		event = &ErrorEvent{}
	case EventTypePong:
		event = &Pong{}
	default:
		return nil, fmt.Errorf("unknown event type %q", probe.Type)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return event, nil
}
