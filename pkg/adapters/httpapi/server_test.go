package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/labelkit/pkg/adapters/dirdocument"
	"github.com/user/labelkit/pkg/adapters/ggrenderer"
	"github.com/user/labelkit/pkg/adapters/memdocument"
	"github.com/user/labelkit/pkg/adapters/wsbus"
	"github.com/user/labelkit/pkg/mocks"
	"github.com/user/labelkit/pkg/orchestrator"
	"github.com/user/labelkit/pkg/pipeline"
	"github.com/user/labelkit/pkg/ports"
	"github.com/user/labelkit/pkg/stages/raster"
	"github.com/user/labelkit/pkg/stages/textfit"
)

const labelSVG = `<svg id="label-1" xmlns="http://www.w3.org/2000/svg" width="40" height="20"></svg>`

func newTestServer(t *testing.T, doc ports.Document) *Server {
	t.Helper()
	log := mocks.NewLogger()
	tf := textfit.NewStage(mocks.NewMeasurer(), log)
	rs := raster.NewStage(doc, mocks.NewDecoder(color.Black), ggrenderer.New(), mocks.NewDebugSink(false), log)
	o := orchestrator.New(tf, tf.RecipeStage(), rs, log, orchestrator.Config{
		AppHost: "labels.example.com",
		Now:     func() time.Time { return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC) },
	})
	return New(o, doc, log)
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" && !strings.HasPrefix(body, "<") {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFlags(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodGet, "/v1/flags", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currentDate":"2026-03-14","appHost":"labels.example.com"}`, rec.Body.String())
}

func TestMeasure(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPost, "/v1/measure",
		`{"requestId":7,"text":"Hello","fontFamily":"sans-serif","maxFontSize":40,"minFontSize":10,"maxWidth":500}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"requestId":7,"fittedFontSize":40,"lines":["Hello"]}`, rec.Body.String())
}

func TestMeasure_MintsRequestID(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPost, "/v1/measure",
		`{"text":"Hello","fontFamily":"sans-serif","maxFontSize":40,"minFontSize":10,"maxWidth":500}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var res pipeline.MeasureResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.RequestID.String(), 36)
}

func TestMeasure_BadJSON(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPost, "/v1/measure", `{"text":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeasureRecipe(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPost, "/v1/measure/recipe",
		`{"requestId":"r1","titleText":"Pancakes","ingredientsText":"flour milk eggs","fontFamily":"serif",`+
			`"titleFontSize":20,"titleMinFontSize":10,"smallFontSize":10,"maxWidth":400,"ingredientsMaxChars":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"requestId":"r1","titleFittedFontSize":20,"titleLines":["Pancakes"],"ingredientLines":["flour milk eggs"]}`,
		rec.Body.String())
}

func TestRasterize_NotFound(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPost, "/v1/rasterize", `{"requestId":"r2","svgId":"svg-99","width":40,"height":20}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"requestId":"r2","dataUrl":null,"error":"SVG element not found: svg-99"}`, rec.Body.String())
}

func TestRasterize_AfterUpload(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))

	rec := do(s, http.MethodPut, "/v1/elements/label-1", labelSVG)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(s, http.MethodPost, "/v1/rasterize", `{"requestId":"r3","svgId":"label-1","width":40,"height":20}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.RasterResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.OK(), "unexpected error result")
	assert.True(t, strings.HasPrefix(*res.DataURL, "data:image/png;base64,"))
}

func TestRasterize_PNGFormat(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	require.Equal(t, http.StatusNoContent, do(s, http.MethodPut, "/v1/elements/label-1", labelSVG).Code)

	rec := do(s, http.MethodPost, "/v1/rasterize?format=png", `{"svgId":"label-1","width":20,"height":40,"rotate":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestRasterize_PNGFormatFailure(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPost, "/v1/rasterize?format=png", `{"svgId":"missing","width":20,"height":40}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "SVG element not found: missing")
}

func TestElements_ListAndDelete(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	do(s, http.MethodPut, "/v1/elements/b", labelSVG)
	do(s, http.MethodPut, "/v1/elements/a", labelSVG)

	rec := do(s, http.MethodGet, "/v1/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ids":["a","b"]}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, do(s, http.MethodDelete, "/v1/elements/a", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodDelete, "/v1/elements/a", "").Code)
}

func TestElements_EmptyMarkup(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	rec := do(s, http.MethodPut, "/v1/elements/a", "   ")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestElements_ReadOnlyDocument(t *testing.T) {
	fs := mocks.NewFileSystem()
	doc := dirdocument.New("/labels", fs, time.Millisecond)
	s := newTestServer(t, doc)

	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodPut, "/v1/elements/a", labelSVG).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodDelete, "/v1/elements/a", "").Code)
}

func TestWebsocketSession(t *testing.T) {
	s := newTestServer(t, memdocument.New(time.Millisecond))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := wsbus.Dial(ctx, "ws://"+strings.TrimPrefix(srv.URL, "http://")+"/v1/ws")
	require.NoError(t, err)
	defer client.Close()

	env, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.PortFlags, env.Port)

	req, err := ports.NewEnvelope(pipeline.PortTextMeasure, map[string]any{
		"requestId": "ws-1", "text": "Hello", "fontFamily": "sans-serif",
		"maxFontSize": 40, "minFontSize": 10, "maxWidth": 500,
	})
	require.NoError(t, err)
	require.NoError(t, client.Send(ctx, req))

	env, err = client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.PortTextMeasureResult, env.Port)
	assert.JSONEq(t, `{"requestId":"ws-1","fittedFontSize":40,"lines":["Hello"]}`, string(env.Payload))
}
