package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func eventMessage(t *testing.T, offset int64, eventType string) kafka.Message {
	t.Helper()
	e, err := NewEvent(eventType, "order", "o-1", "test", map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	raw, _ := json.Marshal(e)
	return kafka.Message{Topic: Topic("order", "placed"), Offset: offset, Key: []byte("o-1"), Value: raw}
}

func newTestConsumer(r MessageReader, h Handler, dlq *DLQ) *Consumer {
	c := NewConsumerWithReader(r, Topic("order", "placed"), "analytics-cache", h, dlq, testLogger())
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 1, "order.placed"), eventMessage(t, 2, "order.placed")}}
	var handled int
	c := newTestConsumer(r, func(context.Context, *Event) error {
		handled++
		return nil
	}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if handled != 2 || len(r.committed) != 2 {
		t.Fatalf("handled=%d committed=%d, want 2/2", handled, len(r.committed))
	}
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 7, "order.placed")}}
	w := &fakeWriter{}
	attempts := 0
	c := newTestConsumer(r, func(context.Context, *Event) error {
		attempts++
		return errors.New("redis down")
	}, NewDLQ(w, testLogger()))

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if attempts != maxHandlerAttempts {
		t.Errorf("attempts = %d, want %d", attempts, maxHandlerAttempts)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("dead-lettered %d messages, want 1", len(w.msgs))
	}
	dl := w.msgs[0]
	if dl.Topic != "insightmart.order.placed.dlq" || header(dl, "dlq.original_offset") != "7" {
		t.Errorf("dead letter = %s offset %s", dl.Topic, header(dl, "dlq.original_offset"))
	}
	if header(dl, "dlq.consumer_group") != "analytics-cache" {
		t.Errorf("group header = %q", header(dl, "dlq.consumer_group"))
	}
	if len(r.committed) != 1 {
		t.Errorf("poison message not committed")
	}
}

func TestConsumer_RecoversOnRetry(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 1, "order.placed")}}
	w := &fakeWriter{}
	attempts := 0
	c := newTestConsumer(r, func(context.Context, *Event) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}, NewDLQ(w, testLogger()))

	_ = c.Start(context.Background())
	if attempts != 2 || len(w.msgs) != 0 || len(r.committed) != 1 {
		t.Fatalf("attempts=%d dlq=%d committed=%d", attempts, len(w.msgs), len(r.committed))
	}
}

func TestConsumer_UnparseableMessageSkipped(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Topic: "insightmart.order.placed", Value: []byte("{oops")}}}
	w := &fakeWriter{}
	called := false
	c := newTestConsumer(r, func(context.Context, *Event) error {
		called = true
		return nil
	}, NewDLQ(w, testLogger()))

	_ = c.Start(context.Background())
	if called {
		t.Error("handler called for unparseable message")
	}
	if len(w.msgs) != 1 || len(r.committed) != 1 {
		t.Fatalf("dlq=%d committed=%d, want 1/1", len(w.msgs), len(r.committed))
	}
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 1, "order.placed")}}
	c := newTestConsumer(r, func(context.Context, *Event) error { return nil }, nil)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(r.committed) != 0 {
		t.Error("committed after cancel")
	}
}

func TestConsumer_CloseOnce(t *testing.T) {
	r := &fakeReader{}
	c := newTestConsumer(r, nil, nil)
	_ = c.Close()
	_ = c.Close()
	if r.closes != 1 {
		t.Errorf("reader closed %d times", r.closes)
	}
}
