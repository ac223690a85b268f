// Package chanbus connects an in-process host to labelkit through Go
// channels. It is used to embed labelkit and to drive it from tests.
package chanbus

import (
	"context"
	"io"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// Bus implements ports.MessageBus. The labelkit side calls Receive and Send;
// the host side calls Post, CloseInput and Next.
type Bus struct {
	in  chan ports.Envelope
	out chan ports.Envelope

	done      chan struct{}
	closeOnce sync.Once
	inOnce    sync.Once
}

// New creates a Bus whose channels hold up to buffer envelopes each way.
func New(buffer int) *Bus {
	return &Bus{
		in:   make(chan ports.Envelope, buffer),
		out:  make(chan ports.Envelope, buffer),
		done: make(chan struct{}),
	}
}

// Receive returns the next envelope posted by the host, or io.EOF once the
// host has called CloseInput and every posted envelope has been received.
func (b *Bus) Receive(ctx context.Context) (ports.Envelope, error) {
	select {
	case <-ctx.Done():
		return ports.Envelope{}, ctx.Err()
	case <-b.done:
		return ports.Envelope{}, io.EOF
	case env, ok := <-b.in:
		if !ok {
			return ports.Envelope{}, io.EOF
		}
		return env, nil
	}
}

// Send delivers env to the host.
func (b *Bus) Send(ctx context.Context, env ports.Envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return io.ErrClosedPipe
	case b.out <- env:
		return nil
	}
}

// Close tears the bus down for both sides.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

// Post marshals payload onto port and delivers it to labelkit.
func (b *Bus) Post(ctx context.Context, port string, payload any) error {
	env, err := ports.NewEnvelope(port, payload)
	if err != nil {
		return err
	}
	return b.PostEnvelope(ctx, env)
}

// PostEnvelope delivers a raw envelope to labelkit.
func (b *Bus) PostEnvelope(ctx context.Context, env ports.Envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return io.ErrClosedPipe
	case b.in <- env:
		return nil
	}
}

// CloseInput signals that the host will post no more envelopes.
func (b *Bus) CloseInput() {
	b.inOnce.Do(func() { close(b.in) })
}

// Next returns the next envelope sent by labelkit.
func (b *Bus) Next(ctx context.Context) (ports.Envelope, error) {
	select {
	case <-ctx.Done():
		return ports.Envelope{}, ctx.Err()
	case env := <-b.out:
		return env, nil
	}
}

// Ensure Bus implements ports.MessageBus
var _ ports.MessageBus = (*Bus)(nil)
