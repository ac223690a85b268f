package stdiobus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/labelkit/pkg/ports"
)

func TestBus_Receive(t *testing.T) {
	input := strings.Join([]string{
		`{"port":"requestTextMeasure","payload":{"requestId":"a"}}`,
		``,
		`not json`,
		`{"port":"requestSvgToPng","payload":{"requestId":1}}`,
	}, "\n")
	bus := New(strings.NewReader(input), io.Discard)
	ctx := context.Background()

	env, err := bus.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if env.Port != "requestTextMeasure" || string(env.Payload) != `{"requestId":"a"}` {
		t.Errorf("unexpected envelope %+v", env)
	}

	if _, err := bus.Receive(ctx); !errors.Is(err, ports.ErrMalformedEnvelope) {
		t.Errorf("expected ErrMalformedEnvelope, got %v", err)
	}

	env, err = bus.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if env.Port != "requestSvgToPng" {
		t.Errorf("unexpected port %q", env.Port)
	}

	for i := 0; i < 2; i++ {
		if _, err := bus.Receive(ctx); err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
	}
}

func TestBus_Receive_ContextCanceled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	bus := New(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := bus.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBus_Receive_AfterClose(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	bus := New(r, io.Discard)
	bus.Close()

	if _, err := bus.Receive(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF after Close, got %v", err)
	}
}

func TestBus_Send_Concurrent(t *testing.T) {
	var out bytes.Buffer
	bus := New(strings.NewReader(""), &out)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env, _ := ports.NewEnvelope("receivePngResult", map[string]string{"requestId": "x"})
			if err := bus.Send(context.Background(), env); err != nil {
				t.Errorf("Send failed: %v", err)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if l != `{"port":"receivePngResult","payload":{"requestId":"x"}}` {
			t.Errorf("unexpected line %q", l)
		}
	}
}
