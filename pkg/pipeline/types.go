package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// Correlation
// =============================================================================

// RequestID is the opaque token pairing a request with its response.
// It round-trips the JSON form the host used (string or number).
type RequestID struct {
	value   string
	numeric bool
}

// NewRequestID returns a string request id.
func NewRequestID(s string) RequestID {
	return RequestID{value: s}
}

// NumericRequestID returns a numeric request id.
func NumericRequestID(n int64) RequestID {
	return RequestID{value: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the id's text form.
func (id RequestID) String() string {
	return id.value
}

// IsZero reports whether the id was never set.
func (id RequestID) IsZero() bool {
	return id == RequestID{}
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = RequestID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RequestID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("requestId must be a string or number: %w", err)
	}
	*id = RequestID{value: n.String(), numeric: true}
	return nil
}

// =============================================================================
// Ports
// =============================================================================

// Port names on the host message bus.
const (
	PortTextMeasure         = "requestTextMeasure"
	PortTextMeasureResult   = "receiveTextMeasureResult"
	PortRecipeMeasure       = "requestRecipeMeasure"
	PortRecipeMeasureResult = "receiveRecipeMeasureResult"
	PortSvgToPng            = "requestSvgToPng"
	PortPngResult           = "receivePngResult"
	PortFlags               = "flags"
	PortError               = "error"
)

// =============================================================================
// Text-fit Types
// =============================================================================

// MeasureRequest asks for the fitted size and lines of a single text.
type MeasureRequest struct {
	RequestID   RequestID `json:"requestId"`
	Text        string    `json:"text"`
	FontFamily  string    `json:"fontFamily"`
	MaxFontSize int       `json:"maxFontSize"`
	MinFontSize int       `json:"minFontSize"`
	MaxWidth    float64   `json:"maxWidth"`
}

// MeasureResult is the answer to a MeasureRequest.
type MeasureResult struct {
	RequestID      RequestID `json:"requestId"`
	FittedFontSize int       `json:"fittedFontSize"`
	Lines          []string  `json:"lines"`
}

// RecipeMeasureRequest fits a bold title and wraps a truncated ingredient
// list at a fixed small size.
type RecipeMeasureRequest struct {
	RequestID           RequestID `json:"requestId"`
	TitleText           string    `json:"titleText"`
	IngredientsText     string    `json:"ingredientsText"`
	FontFamily          string    `json:"fontFamily"`
	TitleFontSize       int       `json:"titleFontSize"`
	TitleMinFontSize    int       `json:"titleMinFontSize"`
	SmallFontSize       int       `json:"smallFontSize"`
	MaxWidth            float64   `json:"maxWidth"`
	IngredientsMaxChars int       `json:"ingredientsMaxChars"`
}

// RecipeMeasureResult is the answer to a RecipeMeasureRequest.
type RecipeMeasureResult struct {
	RequestID           RequestID `json:"requestId"`
	TitleFittedFontSize int       `json:"titleFittedFontSize"`
	TitleLines          []string  `json:"titleLines"`
	IngredientLines     []string  `json:"ingredientLines"`
}

// =============================================================================
// Raster Types
// =============================================================================

// RasterRequest asks for an on-page SVG element as a PNG data URL.
type RasterRequest struct {
	RequestID RequestID `json:"requestId"`
	SVGID     string    `json:"svgId"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Rotate    bool      `json:"rotate"`
}

// RasterResult carries either DataURL or Error, never both.
type RasterResult struct {
	RequestID RequestID `json:"requestId"`
	DataURL   *string   `json:"dataUrl"`
	Error     *string   `json:"error"`
}

// RasterSuccess builds a successful result.
func RasterSuccess(id RequestID, dataURL string) RasterResult {
	return RasterResult{RequestID: id, DataURL: &dataURL}
}

// RasterFailure builds a failed result.
func RasterFailure(id RequestID, msg string) RasterResult {
	return RasterResult{RequestID: id, Error: &msg}
}

// OK reports whether the result carries a data URL.
func (r RasterResult) OK() bool {
	return r.DataURL != nil
}

// =============================================================================
// Host bootstrap
// =============================================================================

// Flags are the bootstrap values handed to the host UI on startup.
type Flags struct {
	CurrentDate string `json:"currentDate"`
	AppHost     string `json:"appHost,omitempty"`
}

// NewFlags returns flags for the given clock reading and host name.
func NewFlags(now time.Time, appHost string) Flags {
	return Flags{
		CurrentDate: now.Format("2006-01-02"),
		AppHost:     appHost,
	}
}

// ErrorMessage is sent on PortError for requests that could not be decoded.
type ErrorMessage struct {
	RequestID RequestID `json:"requestId"`
	Port      string    `json:"port"`
	Error     string    `json:"error"`
}
