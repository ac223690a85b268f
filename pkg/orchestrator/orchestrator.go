// Package orchestrator routes host port messages to the pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/labelkit/pkg/pipeline"
	"github.com/user/labelkit/pkg/ports"
)

// ErrInvalidRequest wraps payloads that do not decode into a request.
var ErrInvalidRequest = errors.New("invalid request")

// Config contains the runtime settings of the orchestrator.
type Config struct {
	// AppHost is forwarded to the host in the bootstrap flags.
	AppHost string

	// MaxInFlight bounds concurrently handled requests per session.
	MaxInFlight int

	// SendTimeout bounds delivery of one response. Responses are still sent
	// after the session context is canceled.
	SendTimeout time.Duration

	// Now is the clock used for the bootstrap flags.
	Now func() time.Time
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxInFlight: 16,
		SendTimeout: 5 * time.Second,
		Now:         time.Now,
	}
}

// Orchestrator serves the text-fit and raster ports.
type Orchestrator struct {
	measureStage pipeline.Stage[pipeline.MeasureRequest, pipeline.MeasureResult]
	recipeStage  pipeline.Stage[pipeline.RecipeMeasureRequest, pipeline.RecipeMeasureResult]
	rasterStage  pipeline.Stage[pipeline.RasterRequest, pipeline.RasterResult]
	logger       ports.Logger
	config       Config
}

// New creates a new Orchestrator. Zero config fields take their defaults.
func New(
	measureStage pipeline.Stage[pipeline.MeasureRequest, pipeline.MeasureResult],
	recipeStage pipeline.Stage[pipeline.RecipeMeasureRequest, pipeline.RecipeMeasureResult],
	rasterStage pipeline.Stage[pipeline.RasterRequest, pipeline.RasterResult],
	logger ports.Logger,
	config Config,
) *Orchestrator {
	defaults := DefaultConfig()
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = defaults.MaxInFlight
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	return &Orchestrator{
		measureStage: measureStage,
		recipeStage:  recipeStage,
		rasterStage:  rasterStage,
		logger:       logger,
		config:       config,
	}
}

// Flags returns the bootstrap flags for a new host session.
func (o *Orchestrator) Flags() pipeline.Flags {
	return pipeline.NewFlags(o.config.Now(), o.config.AppHost)
}

// Measure fits a single text.
func (o *Orchestrator) Measure(ctx context.Context, req pipeline.MeasureRequest) (pipeline.MeasureResult, error) {
	return o.measureStage.Execute(ctx, req)
}

// MeasureRecipe fits a recipe title and its ingredient list.
func (o *Orchestrator) MeasureRecipe(ctx context.Context, req pipeline.RecipeMeasureRequest) (pipeline.RecipeMeasureResult, error) {
	return o.recipeStage.Execute(ctx, req)
}

// Rasterize converts an element to a PNG data URL. Failures are reported in
// the result.
func (o *Orchestrator) Rasterize(ctx context.Context, req pipeline.RasterRequest) pipeline.RasterResult {
	res, err := o.rasterStage.Execute(ctx, req)
	if err != nil {
		return pipeline.RasterFailure(req.RequestID, err.Error())
	}
	return res
}

// Serve runs one host session on bus: it sends the bootstrap flags, then
// answers every request on its own goroutine until the host closes the bus
// or ctx is canceled. It waits for in-flight requests before returning.
// A closed bus is a normal end of session and returns nil.
func (o *Orchestrator) Serve(ctx context.Context, bus ports.MessageBus) error {
	if err := o.send(ctx, bus, pipeline.PortFlags, o.Flags()); err != nil {
		return fmt.Errorf("send flags: %w", err)
	}
	o.logger.Info("Session started")

	var (
		wg       sync.WaitGroup
		inFlight atomic.Int64
		sem      = make(chan struct{}, o.config.MaxInFlight)
	)
	defer wg.Wait()

	for {
		env, err := bus.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ports.ErrMalformedEnvelope):
				o.logger.Warn("Dropped malformed message: %s", err)
				continue
			case errors.Is(err, io.EOF):
				o.logger.Info("Host disconnected, finishing %d requests", inFlight.Load())
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				return fmt.Errorf("receive: %w", err)
			}
		}

		if !isRequestPort(env.Port) {
			o.logger.Warn("Dropped message on unknown port %s", env.Port)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		wg.Add(1)
		inFlight.Add(1)
		go func(env ports.Envelope) {
			defer wg.Done()
			defer inFlight.Add(-1)
			defer func() { <-sem }()
			o.dispatch(ctx, bus, env)
		}(env)
	}
}

func isRequestPort(port string) bool {
	switch port {
	case pipeline.PortTextMeasure, pipeline.PortRecipeMeasure, pipeline.PortSvgToPng:
		return true
	}
	return false
}

// dispatch handles one request and sends exactly one response for every
// request whose requestId can be read.
func (o *Orchestrator) dispatch(ctx context.Context, bus ports.MessageBus, env ports.Envelope) {
	id, hasID := probeRequestID(env.Payload)

	var (
		port   string
		result any
		err    error
	)
	switch env.Port {
	case pipeline.PortTextMeasure:
		port = pipeline.PortTextMeasureResult
		result, err = safely(func() (any, error) { return run(ctx, env.Payload, o.measureStage) })
	case pipeline.PortRecipeMeasure:
		port = pipeline.PortRecipeMeasureResult
		result, err = safely(func() (any, error) { return run(ctx, env.Payload, o.recipeStage) })
	case pipeline.PortSvgToPng:
		port = pipeline.PortPngResult
		result, err = safely(func() (any, error) { return run(ctx, env.Payload, o.rasterStage) })
	}

	if err != nil {
		if !hasID {
			o.logger.Warn("Dropped %s message without requestId: %s", env.Port, err)
			return
		}
		o.logger.Warn("Request %s on %s failed: %s", id, env.Port, err)
		if env.Port == pipeline.PortSvgToPng {
			result = pipeline.RasterFailure(id, err.Error())
		} else {
			port = pipeline.PortError
			result = pipeline.ErrorMessage{RequestID: id, Port: env.Port, Error: err.Error()}
		}
	}

	if err := o.send(ctx, bus, port, result); err != nil {
		o.logger.Error("Failed to send %s: %s", port, err)
	}
}

// send delivers one response even when ctx is already canceled.
func (o *Orchestrator) send(ctx context.Context, bus ports.MessageBus, port string, payload any) error {
	env, err := ports.NewEnvelope(port, payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", port, err)
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.SendTimeout)
	defer cancel()
	return bus.Send(sendCtx, env)
}

func run[In, Out any](ctx context.Context, payload json.RawMessage, stage pipeline.Stage[In, Out]) (Out, error) {
	var req In
	if err := json.Unmarshal(payload, &req); err != nil {
		var zero Out
		return zero, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return stage.Execute(ctx, req)
}

func safely(fn func() (any, error)) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return fn()
}

// probeRequestID reads only the requestId field so a request with other
// malformed fields can still be answered.
func probeRequestID(payload json.RawMessage) (pipeline.RequestID, bool) {
	var probe struct {
		RequestID *pipeline.RequestID `json:"requestId"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || probe.RequestID == nil || probe.RequestID.IsZero() {
		return pipeline.RequestID{}, false
	}
	return *probe.RequestID, true
}
