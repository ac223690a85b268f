// Package pipeline defines the request/response values exchanged over the
// host ports and the Stage abstraction the adapters implement.
package pipeline

import (
	"context"
)

// Stage handles one kind of request.
type Stage[In, Out any] interface {
	// Execute handles input and returns its result.
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc is a function adapter for Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage interface.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
