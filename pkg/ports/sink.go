package ports

import (
	"image"
)

// DebugSink receives intermediate raster artifacts for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSource saves the serialized SVG markup of a request.
	SaveSource(requestID string, markup []byte) error

	// SaveSurface saves an intermediate or final drawing surface.
	// stage names the step, e.g. "landscape" or "final".
	SaveSurface(requestID, stage string, img image.Image) error
}
