package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/queue"
)

type recordingPublisher struct {
	mu   sync.Mutex
	got  []queue.ActivityEvent
	done chan struct{}
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	r.mu.Lock()
	r.got = append(r.got, ev)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestNewPublisher(t *testing.T) {
	assert.IsType(t, NopPublisher{}, NewPublisher(config.EventsConfig{Enabled: false}))
	assert.IsType(t, &AMQPPublisher{}, NewPublisher(config.EventsConfig{Enabled: true, URL: "amqp://x", Queue: "q"}))
}

func TestEmitStampsAndPublishes(t *testing.T) {
	rec := &recordingPublisher{done: make(chan struct{})}
	Emit(rec, queue.ActivityEvent{Type: queue.ZoneSubmitted, ActorID: 3})

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.got, 1)
	assert.Equal(t, queue.ZoneSubmitted, rec.got[0].Type)
	assert.False(t, rec.got[0].OccurredAt.IsZero())
}

func TestEmitNopAndNil(t *testing.T) {
	Emit(nil, queue.ActivityEvent{Type: queue.ZoneDeleted})
	Emit(NopPublisher{}, queue.ActivityEvent{Type: queue.ZoneDeleted})
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), queue.ActivityEvent{}))
}
