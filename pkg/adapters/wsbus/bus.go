// Package wsbus carries envelopes over a websocket connection, one JSON
// envelope per text frame.
package wsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/user/labelkit/pkg/ports"
)

// Bus implements ports.MessageBus over a websocket.
type Bus struct {
	conn   net.Conn
	rw     io.ReadWriter
	server bool

	sendMu    sync.Mutex
	closeOnce sync.Once
}

// Upgrade turns an HTTP request into a server-side Bus.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Bus, error) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	return newBus(conn, conn, true), nil
}

// Dial connects to a labelkit websocket endpoint as the host.
func Dial(ctx context.Context, url string) (*Bus, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	var r io.Reader = conn
	if br != nil {
		// Frames that arrived with the handshake are buffered in br.
		r = br
	}
	return newBus(conn, r, false), nil
}

func newBus(conn net.Conn, r io.Reader, server bool) *Bus {
	b := &Bus{conn: conn, server: server}
	b.rw = struct {
		io.Reader
		io.Writer
	}{r, lockedWriter{b}}
	return b
}

// lockedWriter serializes control-frame replies written while reading with
// data frames written by Send.
type lockedWriter struct {
	b *Bus
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.b.sendMu.Lock()
	defer w.b.sendMu.Unlock()
	return w.b.conn.Write(p)
}

// Receive returns the next text frame as an envelope. Control frames are
// answered internally; a close frame or a closed connection yields io.EOF.
func (b *Bus) Receive(ctx context.Context) (ports.Envelope, error) {
	stop := context.AfterFunc(ctx, func() {
		b.conn.SetReadDeadline(time.Now())
	})
	defer func() {
		if stop() {
			return
		}
		b.conn.SetReadDeadline(time.Time{})
	}()

	for {
		var (
			data []byte
			op   ws.OpCode
			err  error
		)
		if b.server {
			data, op, err = wsutil.ReadClientData(b.rw)
		} else {
			data, op, err = wsutil.ReadServerData(b.rw)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ports.Envelope{}, ctx.Err()
			}
			if isClosed(err) {
				return ports.Envelope{}, io.EOF
			}
			return ports.Envelope{}, fmt.Errorf("websocket read: %w", err)
		}
		if op != ws.OpText {
			continue
		}
		return ports.DecodeEnvelope(data)
	}
}

func isClosed(err error) bool {
	var closed wsutil.ClosedError
	return errors.As(err, &closed) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Send writes env as a text frame. Concurrent calls are serialized.
func (b *Bus) Send(ctx context.Context, env ports.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		b.conn.SetWriteDeadline(deadline)
		defer b.conn.SetWriteDeadline(time.Time{})
	}
	if b.server {
		err = wsutil.WriteServerMessage(b.conn, ws.OpText, data)
	} else {
		err = wsutil.WriteClientMessage(b.conn, ws.OpText, data)
	}
	if err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Close sends a normal close frame and closes the connection.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.sendMu.Lock()
		frame := ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		if !b.server {
			frame = ws.MaskFrameInPlace(frame)
		}
		ws.WriteFrame(b.conn, frame)
		b.sendMu.Unlock()
		err = b.conn.Close()
	})
	return err
}

// Ensure Bus implements ports.MessageBus
var _ ports.MessageBus = (*Bus)(nil)
