// Package chromepage hosts the label document in a headless Chrome page.
// The page is both the element source (ports.ElementStore) and the SVG
// decoder (ports.SVGDecoder), so rasterization matches what the browser
// would draw.
package chromepage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/labelkit/pkg/ports"
)

// RootID is the id of the container that uploaded elements are appended to
// when the page is blank.
const RootID = "labelkit-root"

// putTimeout bounds Put and Remove, which have no caller context.
const putTimeout = 5 * time.Second

// Options configures the browser page.
type Options struct {
	ChromePath  string
	Headless    bool
	AutoInstall bool
	// PageURL is loaded on launch. Empty means a blank page with a RootID
	// container.
	PageURL string
}

// Page is a launched browser tab.
type Page struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	logger      ports.Logger
}

// Launch starts Chrome and loads the page.
func Launch(ctx context.Context, opts Options, logger ports.Logger) (*Page, error) {
	logger = logger.WithComponent("browser")

	chromePath := ResolveChromePath(opts.ChromePath)
	if chromePath == "" && opts.AutoInstall {
		logger.Info("Chrome not found, installing Chromium")
		path, err := InstallChromium()
		if err != nil {
			return nil, err
		}
		chromePath = path
	}
	if chromePath == "" {
		return nil, fmt.Errorf("chrome not found: please install Chrome/Chromium, set CHROME_PATH environment variable, or use --chrome-path option")
	}

	chromedpOpts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	}
	if opts.Headless {
		logger.Debug("Launching browser in headless mode")
		chromedpOpts = append(chromedpOpts, chromedp.Flag("headless", "new"))
	} else {
		logger.Debug("Launching browser in visible mode")
	}

	p := &Page{logger: logger}
	p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(ctx, chromedpOpts...)
	p.ctx, p.cancel = chromedp.NewContext(p.allocCtx)

	url := opts.PageURL
	if url == "" {
		url = "about:blank"
	}
	logger.Debug("Navigating to %s", url)
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if opts.PageURL == "" {
		var ok bool
		actions = append(actions, chromedp.Evaluate(
			fmt.Sprintf(`document.body.innerHTML = '<div id="%s"></div>'; true`, RootID), &ok))
	}
	if err := chromedp.Run(p.ctx, actions...); err != nil {
		p.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return p, nil
}

// Close shuts the browser down.
func (p *Page) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	p.logger.Debug("Browser closed")
	return nil
}

// run executes actions on the page, aborting when either ctx or the page
// context is done.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// WaitFrame resolves after the page's next requestAnimationFrame callback.
func (p *Page) WaitFrame(ctx context.Context) error {
	var ok bool
	js := `new Promise(resolve => requestAnimationFrame(() => resolve(true)))`
	if err := p.run(ctx, chromedp.Evaluate(js, &ok, awaitPromise)); err != nil {
		return fmt.Errorf("wait frame: %w", err)
	}
	return nil
}

type lookup struct {
	Found  bool   `json:"found"`
	Markup string `json:"markup"`
}

// Element serializes the element with XMLSerializer.
func (p *Page) Element(ctx context.Context, id string) ([]byte, bool, error) {
	js := fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) return {found: false, markup: ""};
	return {found: true, markup: new XMLSerializer().serializeToString(el)};
})()`, jsString(id))

	var res lookup
	if err := p.run(ctx, chromedp.Evaluate(js, &res)); err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", id, err)
	}
	if !res.Found {
		return nil, false, nil
	}
	return []byte(res.Markup), true, nil
}

// Put inserts markup as an element with the given id, replacing any
// element that already has it.
func (p *Page) Put(id string, markup []byte) {
	js := fmt.Sprintf(`(() => {
	const id = %s;
	const tpl = document.createElement("div");
	tpl.innerHTML = %s;
	const node = tpl.firstElementChild;
	if (!node) return false;
	node.setAttribute("id", id);
	const old = document.getElementById(id);
	if (old) {
		old.replaceWith(node);
	} else {
		(document.getElementById(%s) || document.body).appendChild(node);
	}
	return true;
})()`, jsString(id), jsString(string(markup)), jsString(RootID))

	ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
	defer cancel()

	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		p.logger.Warn("Failed to insert element %s: %s", id, err)
		return
	}
	if !ok {
		p.logger.Warn("Markup for element %s has no root element", id)
	}
}

// Remove deletes the element with the given id from the page.
func (p *Page) Remove(id string) bool {
	js := fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) return false;
	el.remove();
	return true;
})()`, jsString(id))

	ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
	defer cancel()

	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		p.logger.Warn("Failed to remove element %s: %s", id, err)
		return false
	}
	return ok
}

// IDs returns the ids of all svg elements on the page, sorted.
func (p *Page) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	js := `Array.from(document.querySelectorAll("svg[id]"), el => el.id).sort()`
	if err := p.run(ctx, chromedp.Evaluate(js, &ids)); err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	return ids, nil
}

// decodeJS loads markup through a blob object URL into an Image, draws it on
// an off-screen canvas and returns the canvas as a PNG data URL. The object
// URL is revoked on every path.
const decodeJS = `(async (markup, width, height) => {
	const blob = new Blob([markup], {type: "image/svg+xml;charset=utf-8"});
	const url = URL.createObjectURL(blob);
	try {
		const img = await new Promise((resolve, reject) => {
			const i = new Image();
			i.onload = () => resolve(i);
			i.onerror = () => reject(new Error("Failed to load SVG as image"));
			i.src = url;
		});
		const canvas = document.createElement("canvas");
		canvas.width = width > 0 ? width : img.naturalWidth;
		canvas.height = height > 0 ? height : img.naturalHeight;
		canvas.getContext("2d").drawImage(img, 0, 0, canvas.width, canvas.height);
		return canvas.toDataURL("image/png");
	} finally {
		URL.revokeObjectURL(url);
	}
})(%s, %d, %d)`

const pngDataURLPrefix = "data:image/png;base64,"

// Decode rasterizes markup with the browser's own SVG renderer.
func (p *Page) Decode(ctx context.Context, markup []byte, width, height int) (image.Image, error) {
	js := fmt.Sprintf(decodeJS, jsString(string(markup)), width, height)

	var dataURL string
	if err := p.run(ctx, chromedp.Evaluate(js, &dataURL, awaitPromise)); err != nil {
		return nil, fmt.Errorf("decode in browser: %w", err)
	}
	if !strings.HasPrefix(dataURL, pngDataURLPrefix) {
		return nil, fmt.Errorf("decode in browser: unexpected canvas output %.32q", dataURL)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, pngDataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode canvas data: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode canvas PNG: %w", err)
	}
	return img, nil
}

// Ensure Page implements the ports it serves
var (
	_ ports.ElementStore  = (*Page)(nil)
	_ ports.ElementLister = (*Page)(nil)
	_ ports.SVGDecoder    = (*Page)(nil)
)
