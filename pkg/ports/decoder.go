package ports

import (
	"context"
	"image"
)

// SVGDecoder turns serialized SVG markup into a raster image.
type SVGDecoder interface {
	// Decode rasterizes markup. width and height are a size hint for the
	// decoded bitmap; callers scale the result onto their own surface.
	// Implementations must release any intermediate resources they allocate
	// on both the success and the failure path.
	Decode(ctx context.Context, markup []byte, width, height int) (image.Image, error)
}
