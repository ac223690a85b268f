// Package stdiobus carries envelopes as newline-delimited JSON over a reader
// and a writer, typically the process's stdin and stdout.
package stdiobus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// MaxLineSize bounds a single inbound message.
const MaxLineSize = 32 << 20

// Bus implements ports.MessageBus over line-delimited JSON.
type Bus struct {
	in  io.Reader
	out io.Writer

	startOnce sync.Once
	lines     chan []byte
	err       error // set by readLoop before lines is closed
	done      chan struct{}
	closeOnce sync.Once

	sendMu sync.Mutex
}

// New creates a Bus reading envelopes from r and writing them to w.
func New(r io.Reader, w io.Writer) *Bus {
	return &Bus{
		in:    r,
		out:   w,
		lines: make(chan []byte),
		done:  make(chan struct{}),
	}
}

// readLoop owns the reader so a blocked read never holds up Receive's
// context handling.
func (b *Bus) readLoop() {
	defer close(b.lines)

	scanner := bufio.NewScanner(b.in)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)
	for scanner.Scan() {
		data := append([]byte(nil), scanner.Bytes()...)
		select {
		case b.lines <- data:
		case <-b.done:
			b.err = io.EOF
			return
		}
	}
	if err := scanner.Err(); err != nil {
		b.err = fmt.Errorf("read input: %w", err)
		return
	}
	b.err = io.EOF
}

// Receive returns the next envelope. Blank lines are skipped.
func (b *Bus) Receive(ctx context.Context) (ports.Envelope, error) {
	b.startOnce.Do(func() { go b.readLoop() })

	for {
		select {
		case <-ctx.Done():
			return ports.Envelope{}, ctx.Err()
		case <-b.done:
			return ports.Envelope{}, io.EOF
		case data, ok := <-b.lines:
			if !ok {
				return ports.Envelope{}, b.err
			}
			if len(bytes.TrimSpace(data)) == 0 {
				continue
			}
			return ports.DecodeEnvelope(data)
		}
	}
}

// Send writes env as one line. Concurrent calls are serialized.
func (b *Bus) Send(ctx context.Context, env ports.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	data = append(data, '\n')

	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if _, err := b.out.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Close stops the read loop. It does not close the underlying reader.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

// Ensure Bus implements ports.MessageBus
var _ ports.MessageBus = (*Bus)(nil)
