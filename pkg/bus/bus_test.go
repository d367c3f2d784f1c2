package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	received := make(chan *Message, 1)

	sub, err := b.Subscribe(ctx, "widgetflow.widget.submitted", func(msg *Message) {
		received <- msg
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := b.Publish(ctx, "widgetflow.widget.submitted", []byte(`{"widgetId":"w1"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg.Data) != `{"widgetId":"w1"}` {
			t.Fatalf("unexpected payload %q", msg.Data)
		}
		if msg.ID == "" {
			t.Fatalf("expected message id to be assigned")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestMemoryBus_Wildcards(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	var single, tail atomic.Int32
	done := make(chan struct{}, 8)

	if _, err := b.Subscribe(ctx, "widgetflow.*.submitted", func(*Message) {
		single.Add(1)
		done <- struct{}{}
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := b.Subscribe(ctx, "widgetflow.>", func(*Message) {
		tail.Add(1)
		done <- struct{}{}
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = b.Publish(ctx, "widgetflow.widget.submitted", nil)
	_ = b.Publish(ctx, "widgetflow.batch.submitted", nil)
	_ = b.Publish(ctx, "widgetflow.widgets.cleared", nil)
	_ = b.Publish(ctx, "other.widget.submitted", nil)

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("timeout after %d deliveries", i)
		}
	}
	if single.Load() != 2 || tail.Load() != 3 {
		t.Fatalf("unexpected delivery counts single=%d tail=%d", single.Load(), tail.Load())
	}
}

func TestMemoryBus_UnsubscribeAndClose(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "a.b", func(*Message) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("second unsubscribe should be a no-op: %v", err)
	}
	if sub.Subject() != "a.b" {
		t.Fatalf("unexpected subject %q", sub.Subject())
	}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := b.Publish(ctx, "a.b", nil); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := b.Subscribe(ctx, "a.b", func(*Message) {}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMatchSubject(t *testing.T) {
	cases := []struct {
		pattern, subject string
		want             bool
	}{
		{"a.b.c", "a.b.c", true},
		{"a.*.c", "a.b.c", true},
		{"a.*", "a.b.c", false},
		{"a.>", "a.b.c", true},
		{"a.b", "a.c", false},
	}
	for _, tc := range cases {
		if got := matchSubject(tc.pattern, tc.subject); got != tc.want {
			t.Fatalf("matchSubject(%q, %q): want %v, got %v", tc.pattern, tc.subject, tc.want, got)
		}
	}
}
