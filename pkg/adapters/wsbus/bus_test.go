package wsbus

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/labelkit/pkg/ports"
)

// echoServer upgrades every request and echoes envelopes back with the port
// name prefixed by "echo:".
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bus, err := Upgrade(w, r)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer bus.Close()
		for {
			env, err := bus.Receive(r.Context())
			if err != nil {
				return
			}
			env.Port = "echo:" + env.Port
			if err := bus.Send(r.Context(), env); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func TestBus_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	env, _ := ports.NewEnvelope("requestTextMeasure", map[string]any{"requestId": 1})
	if err := client.Send(ctx, env); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if got.Port != "echo:requestTextMeasure" || string(got.Payload) != `{"requestId":1}` {
		t.Errorf("unexpected envelope %+v", got)
	}
}

func TestBus_Receive_ServerClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bus, err := Upgrade(w, r)
		if err != nil {
			return
		}
		bus.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	if _, err := client.Receive(ctx); err != io.EOF {
		t.Errorf("expected io.EOF after server close, got %v", err)
	}
}

func TestBus_Receive_ContextCanceled(t *testing.T) {
	srv := echoServer(t)
	dialCtx, cancelDial := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDial()

	client, err := Dial(dialCtx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBus_Receive_Malformed(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	// A text frame without a port is answered by nothing; the server's
	// Receive reports ErrMalformedEnvelope and the echo loop ends.
	if err := client.Send(ctx, ports.Envelope{}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := client.Receive(ctx); err != io.EOF {
		t.Errorf("expected the server to hang up, got %v", err)
	}
}
