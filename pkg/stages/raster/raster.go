// Package raster implements the raster stage: an SVG element on the document
// is decoded, drawn onto a white surface (optionally rotated 90° clockwise)
// and exported as a PNG data URL.
package raster

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/user/labelkit/pkg/pipeline"
	"github.com/user/labelkit/pkg/ports"
)

// DefaultDecodeTimeout bounds how long a single decode may take.
const DefaultDecodeTimeout = 10 * time.Second

var (
	// ErrElementNotFound is returned when the document has no element with
	// the requested id.
	ErrElementNotFound = errors.New("SVG element not found")

	// ErrDecodeFailure is returned when the markup cannot be turned into an image.
	ErrDecodeFailure = errors.New("Failed to load SVG as image")

	// ErrDecodeTimeout is returned when decoding exceeds the decode timeout.
	ErrDecodeTimeout = errors.New("Timed out loading SVG as image")

	// ErrInvalidSize is returned for non-positive target dimensions.
	ErrInvalidSize = errors.New("invalid raster size")
)

// State is a step of a single raster request.
type State int

const (
	StatePending State = iota
	StateFrameWait
	StateLookup
	StateNotFound
	StateDecoding
	StateDecodeError
	StateDrawing
	StateRotating
	StateExporting
	StateResponded
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFrameWait:
		return "frame-wait"
	case StateLookup:
		return "lookup"
	case StateNotFound:
		return "not-found"
	case StateDecoding:
		return "decoding"
	case StateDecodeError:
		return "decode-error"
	case StateDrawing:
		return "drawing"
	case StateRotating:
		return "rotating"
	case StateExporting:
		return "exporting"
	case StateResponded:
		return "responded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stage rasterizes document elements.
type Stage struct {
	document      ports.Document
	decoder       ports.SVGDecoder
	renderer      ports.Renderer
	sink          ports.DebugSink
	logger        ports.Logger
	decodeTimeout time.Duration
}

// Option configures a Stage.
type Option func(*Stage)

// WithDecodeTimeout overrides DefaultDecodeTimeout. Non-positive values are ignored.
func WithDecodeTimeout(d time.Duration) Option {
	return func(s *Stage) {
		if d > 0 {
			s.decodeTimeout = d
		}
	}
}

// NewStage creates a new raster stage.
func NewStage(doc ports.Document, dec ports.SVGDecoder, r ports.Renderer, sink ports.DebugSink, logger ports.Logger, opts ...Option) *Stage {
	s := &Stage{
		document:      doc,
		decoder:       dec,
		renderer:      r,
		sink:          sink,
		logger:        logger.WithComponent("raster"),
		decodeTimeout: DefaultDecodeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute rasterizes req. Every failure, including panics and context
// cancellation, is reported in the result; the returned error is always nil.
func (s *Stage) Execute(ctx context.Context, req pipeline.RasterRequest) (result pipeline.RasterResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if e, ok := r.(error); ok {
				msg = e.Error()
			}
			s.logger.Error("Raster request %s panicked: %s", req.RequestID, msg)
			result, err = pipeline.RasterFailure(req.RequestID, msg), nil
		}
		s.transition(req.RequestID, StateResponded)
	}()

	s.transition(req.RequestID, StatePending)
	dataURL, rerr := s.rasterize(ctx, req)
	if rerr != nil {
		s.logger.Warn("Failed to rasterize %s: %s", req.SVGID, rerr)
		return pipeline.RasterFailure(req.RequestID, Message(rerr, req.SVGID)), nil
	}

	s.logger.Debug("Rasterized %s at %dx%d", req.SVGID, req.Width, req.Height)
	return pipeline.RasterSuccess(req.RequestID, dataURL), nil
}

// Message converts a rasterize error into the text reported to the host.
func Message(err error, svgID string) string {
	switch {
	case errors.Is(err, ErrElementNotFound):
		return ErrElementNotFound.Error() + ": " + svgID
	case errors.Is(err, ErrDecodeTimeout):
		return ErrDecodeTimeout.Error()
	case errors.Is(err, ErrDecodeFailure):
		return ErrDecodeFailure.Error()
	default:
		return err.Error()
	}
}

func (s *Stage) rasterize(ctx context.Context, req pipeline.RasterRequest) (string, error) {
	id := req.RequestID

	if req.Width <= 0 || req.Height <= 0 {
		return "", fmt.Errorf("%w: %dx%d", ErrInvalidSize, req.Width, req.Height)
	}

	s.transition(id, StateFrameWait)
	if err := s.document.WaitFrame(ctx); err != nil {
		return "", fmt.Errorf("wait frame: %w", err)
	}

	s.transition(id, StateLookup)
	markup, found, err := s.document.Element(ctx, req.SVGID)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", req.SVGID, err)
	}
	if !found {
		s.transition(id, StateNotFound)
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, req.SVGID)
	}
	if s.sink.Enabled() {
		if err := s.sink.SaveSource(id.String(), markup); err != nil {
			s.logger.Warn("Failed to save debug output: %s", err)
		}
	}

	// The drawing surface is landscape (height×width) when rotating.
	drawW, drawH := req.Width, req.Height
	if req.Rotate {
		drawW, drawH = req.Height, req.Width
	}

	s.transition(id, StateDecoding)
	img, err := s.decode(ctx, markup, drawW, drawH)
	if err != nil {
		s.transition(id, StateDecodeError)
		return "", err
	}

	s.transition(id, StateDrawing)
	surface := s.renderer.CreateCanvas(drawW, drawH, color.White)
	surface.DrawImageScaled(img, 0, 0, drawW, drawH)

	if req.Rotate {
		s.transition(id, StateRotating)
		s.saveSurface(id, "landscape", surface.ToImage())
		rotated := s.renderer.CreateCanvas(req.Width, req.Height, color.White)
		rotated.DrawImageRotatedCW(surface.ToImage())
		surface = rotated
	}

	s.transition(id, StateExporting)
	final := surface.ToImage()
	s.saveSurface(id, "final", final)

	data, err := s.renderer.EncodeImage(final, ports.FormatPNG)
	if err != nil {
		return "", fmt.Errorf("encode PNG: %w", err)
	}
	return DataURL(ports.FormatPNG, data), nil
}

type decoded struct {
	img image.Image
	err error
}

// decode runs the decoder on its own goroutine so a decoder that ignores ctx
// still cannot hold the request past the timeout.
func (s *Stage) decode(ctx context.Context, markup []byte, width, height int) (image.Image, error) {
	dctx, cancel := context.WithTimeout(ctx, s.decodeTimeout)
	defer cancel()

	ch := make(chan decoded, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- decoded{err: fmt.Errorf("%w: panic: %v", ErrDecodeFailure, r)}
			}
		}()
		img, err := s.decoder.Decode(dctx, markup, width, height)
		ch <- decoded{img: img, err: err}
	}()

	select {
	case d := <-ch:
		if d.err != nil {
			if ctx.Err() == nil && errors.Is(dctx.Err(), context.DeadlineExceeded) {
				return nil, ErrDecodeTimeout
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(d.err, ErrDecodeFailure) {
				return nil, d.err
			}
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, d.err)
		}
		if d.img == nil || d.img.Bounds().Empty() {
			return nil, fmt.Errorf("%w: empty image", ErrDecodeFailure)
		}
		return d.img, nil
	case <-dctx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrDecodeTimeout
	}
}

func (s *Stage) saveSurface(id pipeline.RequestID, stage string, img image.Image) {
	if !s.sink.Enabled() {
		return
	}
	if err := s.sink.SaveSurface(id.String(), stage, img); err != nil {
		s.logger.Warn("Failed to save debug output: %s", err)
	}
}

func (s *Stage) transition(id pipeline.RequestID, state State) {
	s.logger.Debug("Request %s: %s", id, state)
}

// DataURL encodes data as a base64 data URL of the given format.
func DataURL(format ports.ImageFormat, data []byte) string {
	return "data:" + format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.RasterRequest, pipeline.RasterResult] = (*Stage)(nil)
