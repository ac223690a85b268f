package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/labelkit/pkg/adapters/chromepage"
	"github.com/user/labelkit/pkg/adapters/dirdocument"
	"github.com/user/labelkit/pkg/adapters/filesink"
	"github.com/user/labelkit/pkg/adapters/ggrenderer"
	"github.com/user/labelkit/pkg/adapters/memdocument"
	"github.com/user/labelkit/pkg/adapters/nullsink"
	"github.com/user/labelkit/pkg/adapters/osfilesystem"
	"github.com/user/labelkit/pkg/adapters/shapemeasure"
	"github.com/user/labelkit/pkg/adapters/svgdecoder"
	"github.com/user/labelkit/pkg/config"
	"github.com/user/labelkit/pkg/fonts"
	"github.com/user/labelkit/pkg/orchestrator"
	"github.com/user/labelkit/pkg/ports"
	"github.com/user/labelkit/pkg/stages/raster"
	"github.com/user/labelkit/pkg/stages/textfit"
)

// service is the assembled object graph for one CLI invocation.
type service struct {
	orch    *orchestrator.Orchestrator
	doc     ports.Document
	fs      ports.FileSystem
	closers []func() error
}

// Close releases the browser, if one was launched.
func (s *service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// build wires adapters and stages according to cfg.
func build(ctx context.Context, cfg config.Config, log ports.Logger) (*service, error) {
	fs := osfilesystem.New()
	svc := &service{fs: fs}

	// Fonts
	book := fonts.NewBook()
	if err := book.Register(fs, cfg.FontSources()...); err != nil {
		return nil, err
	}
	for name, family := range cfg.Aliases {
		book.Alias(name, family)
	}

	var measurer ports.TextMeasurer
	switch cfg.Measurer {
	case config.MeasurerGlyph:
		measurer = ggrenderer.NewMeasurer(book)
	default:
		m, err := shapemeasure.New(book)
		if err != nil {
			return nil, fmt.Errorf("create measurer: %w", err)
		}
		measurer = m
	}

	renderer := ggrenderer.New()

	// Browser
	var page *chromepage.Page
	if cfg.UsesChrome() {
		p, err := chromepage.Launch(ctx, chromepage.Options{
			ChromePath:  cfg.Browser.ChromePath,
			Headless:    cfg.Browser.Headless,
			AutoInstall: cfg.Browser.AutoInstall,
			PageURL:     cfg.Document.Page,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		page = p
		svc.closers = append(svc.closers, page.Close)
	}

	// Document
	switch cfg.Document.Kind {
	case config.DocumentChrome:
		svc.doc = page
	case config.DocumentDirectory:
		svc.doc = dirdocument.New(cfg.Document.Dir, fs, cfg.FrameInterval())
	default:
		svc.doc = memdocument.New(cfg.FrameInterval())
	}

	// Decoder
	var decoder ports.SVGDecoder
	if cfg.Decoder == config.DecoderChrome {
		decoder = page
	} else {
		decoder = svgdecoder.New()
	}

	// Debug sink
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			svc.Close()
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	// Stages
	var fitOpts []textfit.Option
	if cfg.StripMarkup {
		fitOpts = append(fitOpts, textfit.WithMarkupStripping())
	}
	fitStage := textfit.NewStage(measurer, log, fitOpts...)
	rasterStage := raster.NewStage(svc.doc, decoder, renderer, sink, log,
		raster.WithDecodeTimeout(cfg.DecodeTimeout()))

	svc.orch = orchestrator.New(fitStage, fitStage.RecipeStage(), rasterStage, log, cfg.ToOrchestratorConfig())
	return svc, nil
}
