package chanbus

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestBus_RoundTrip(t *testing.T) {
	bus := New(4)
	ctx := context.Background()

	if err := bus.Post(ctx, "requestTextMeasure", map[string]string{"requestId": "a"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	bus.CloseInput()

	env, err := bus.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if env.Port != "requestTextMeasure" || string(env.Payload) != `{"requestId":"a"}` {
		t.Errorf("unexpected envelope %+v", env)
	}
	if _, err := bus.Receive(ctx); err != io.EOF {
		t.Errorf("expected io.EOF after CloseInput, got %v", err)
	}

	if err := bus.Send(ctx, env); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	got, err := bus.Next(ctx)
	if err != nil || got.Port != env.Port {
		t.Errorf("expected sent envelope, got %+v err=%v", got, err)
	}
}

func TestBus_Close(t *testing.T) {
	bus := New(0)
	bus.Close()

	if _, err := bus.Receive(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if err := bus.Post(context.Background(), "x", nil); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expected io.ErrClosedPipe, got %v", err)
	}
}

func TestBus_Next_Timeout(t *testing.T) {
	bus := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := bus.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
