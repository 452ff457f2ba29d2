package publisher

import (
	"context"
	"sync"

	r "github.com/fjod/go_delivery/internal/repository"
	"github.com/segmentio/kafka-go"
)

type MockEventStore struct {
	mu        sync.Mutex
	Events    []*r.OutboxEvent
	FetchErr  error
	MarkErr   error
	Processed []int64
}

func (m *MockEventStore) GetUnprocessedEvents(_ context.Context, limit int) ([]*r.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	var out []*r.OutboxEvent
	for _, e := range m.Events {
		if !m.processed(e.ID) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.Processed = append(m.Processed, id)
	return nil
}

func (m *MockEventStore) processed(id int64) bool {
	for _, p := range m.Processed {
		if p == id {
			return true
		}
	}
	return false
}

// MockWriter records messages; FailFrom makes every write from that call
// index on fail.
type MockWriter struct {
	mu       sync.Mutex
	Messages []kafka.Message
	Calls    int
	FailFrom int
	Err      error
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Calls++
	if w.Err != nil && w.Calls > w.FailFrom {
		return w.Err
	}
	w.Messages = append(w.Messages, msgs...)
	return nil
}
