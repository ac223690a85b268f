// Package main provides the CLI entry point for labelkit.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/labelkit/pkg/adapters/httpapi"
	"github.com/user/labelkit/pkg/adapters/logger"
	"github.com/user/labelkit/pkg/adapters/stdiobus"
	"github.com/user/labelkit/pkg/config"
	"github.com/user/labelkit/pkg/pipeline"
	"github.com/user/labelkit/pkg/ports"
)

var version = "dev"

// Flag categories
const (
	categoryConfig  = "Configuration"
	categoryText    = "Text Fitting"
	categoryRaster  = "Rasterization"
	categoryBrowser = "Browser"
	categoryDebug   = "Debug"
	categoryLogging = "Logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the CLI. Data goes to stdout; logs go to stderr except for
// the HTTP server, which logs like a regular daemon.
func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "labelkit",
		Usage:     l10n.T("Fit label text and rasterize label SVGs"),
		UsageText: l10n.T("labelkit serves text measurement and SVG rasterization to label printing UIs."),
		Version:   version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: l10n.T("Serve the message ports over stdio or HTTP"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Value: "stdio", Usage: l10n.T("Transport (stdio, http)")},
					&cli.StringFlag{Name: "listen", Usage: l10n.T("HTTP listen address (overrides config)")},
				},
				Action: func(c *cli.Context) error { return runServe(c, stdin, stdout, stderr) },
			},
			{
				Name:  "measure",
				Usage: l10n.T("Fit a single text and print the result as JSON"),
				Flags: append(requestFlags(),
					&cli.StringFlag{Name: "text", Required: true, Category: categoryText, Usage: l10n.T("Text to fit")},
					&cli.IntFlag{Name: "max-font-size", Value: 40, Category: categoryText, Usage: l10n.T("Largest font size in pixels")},
					&cli.IntFlag{Name: "min-font-size", Value: 10, Category: categoryText, Usage: l10n.T("Smallest font size in pixels")},
				),
				Action: func(c *cli.Context) error { return runMeasure(c, stdout, stderr) },
			},
			{
				Name:  "recipe",
				Usage: l10n.T("Fit a recipe title and ingredient list and print the result as JSON"),
				Flags: append(requestFlags(),
					&cli.StringFlag{Name: "title", Required: true, Category: categoryText, Usage: l10n.T("Recipe title")},
					&cli.StringFlag{Name: "ingredients", Category: categoryText, Usage: l10n.T("Ingredient list")},
					&cli.IntFlag{Name: "title-font-size", Value: 24, Category: categoryText, Usage: l10n.T("Largest title font size in pixels")},
					&cli.IntFlag{Name: "title-min-font-size", Value: 12, Category: categoryText, Usage: l10n.T("Smallest title font size in pixels")},
					&cli.IntFlag{Name: "small-font-size", Value: 10, Category: categoryText, Usage: l10n.T("Ingredient font size in pixels")},
					&cli.IntFlag{Name: "ingredients-max-chars", Category: categoryText, Usage: l10n.T("Truncate ingredients to this many characters (0 = no limit)")},
				),
				Action: func(c *cli.Context) error { return runRecipe(c, stdout, stderr) },
			},
			{
				Name:  "rasterize",
				Usage: l10n.T("Rasterize an SVG element to PNG"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "request-id", Usage: l10n.T("Request id (default: random UUID)")},
					&cli.StringFlag{Name: "svg-id", Required: true, Category: categoryRaster, Usage: l10n.T("Id of the SVG element")},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Category: categoryRaster, Usage: l10n.T("Load the element from this SVG file first")},
					&cli.IntFlag{Name: "width", Required: true, Category: categoryRaster, Usage: l10n.T("Output width in pixels")},
					&cli.IntFlag{Name: "height", Required: true, Category: categoryRaster, Usage: l10n.T("Output height in pixels")},
					&cli.BoolFlag{Name: "rotate", Category: categoryRaster, Usage: l10n.T("Rotate 90 degrees clockwise")},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: categoryRaster, Usage: l10n.T("Write the PNG to this path instead of printing JSON")},
				},
				Action: func(c *cli.Context) error { return runRasterize(c, stdout, stderr) },
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(stdout, l10n.F("labelkit version %s", version))
					return nil
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: categoryConfig, Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "env-file", Value: ".env", Category: categoryConfig, Usage: l10n.T("Environment file loaded before LABELKIT_* overrides")},
		&cli.StringFlag{Name: "app-host", Category: categoryConfig, Usage: l10n.T("Host name sent to the UI in the startup flags")},
		&cli.StringFlag{Name: "measurer", Category: categoryText, Usage: l10n.T("Text measurer (shaping, glyph)")},
		&cli.BoolFlag{Name: "strip-markup", Category: categoryText, Usage: l10n.T("Strip HTML markup from text before measuring")},
		&cli.StringFlag{Name: "document", Category: categoryRaster, Usage: l10n.T("Element source (memory, directory, chrome)")},
		&cli.StringFlag{Name: "document-dir", Category: categoryRaster, Usage: l10n.T("Directory of SVG files for the directory document")},
		&cli.StringFlag{Name: "decoder", Category: categoryRaster, Usage: l10n.T("SVG decoder (svg, chrome)")},
		&cli.StringFlag{Name: "chrome-path", Category: categoryBrowser, Usage: l10n.T("Path to Chrome executable")},
		&cli.BoolFlag{Name: "no-headless", Category: categoryBrowser, Usage: l10n.T("Run browser in non-headless mode")},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: categoryDebug, Usage: l10n.T("Enable debug output")},
		&cli.StringFlag{Name: "debug-dir", Category: categoryDebug, Usage: l10n.T("Directory for debug output")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: categoryLogging, Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Category: categoryLogging, Usage: l10n.T("Suppress all log output")},
	}
}

func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "request-id", Usage: l10n.T("Request id (default: random UUID)")},
		&cli.StringFlag{Name: "font-family", Value: "sans-serif", Category: categoryText, Usage: l10n.T("CSS font family list")},
		&cli.Float64Flag{Name: "max-width", Required: true, Category: categoryText, Usage: l10n.T("Available width in pixels")},
	}
}

// loadConfig applies the config file, environment and command-line flags, in
// that order.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("app-host") {
		cfg.AppHost = c.String("app-host")
	}
	if c.IsSet("measurer") {
		cfg.Measurer = c.String("measurer")
	}
	if c.IsSet("strip-markup") {
		cfg.StripMarkup = c.Bool("strip-markup")
	}
	if c.IsSet("document") {
		cfg.Document.Kind = c.String("document")
	}
	if c.IsSet("document-dir") {
		cfg.Document.Dir = c.String("document-dir")
	}
	if c.IsSet("decoder") {
		cfg.Decoder = c.String("decoder")
	}
	if c.IsSet("chrome-path") {
		cfg.Browser.ChromePath = c.String("chrome-path")
	}
	if c.Bool("no-headless") {
		cfg.Browser.Headless = false
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.LogLevel = ports.LevelQuiet.String()
	}

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config, w io.Writer) ports.Logger {
	level := ports.ParseLogLevel(cfg.LogLevel)
	if level == ports.LevelQuiet {
		return logger.NewNoop()
	}
	if w == nil {
		return logger.NewConsole(level)
	}
	return logger.NewConsoleTo(level, w)
}

// setup loads configuration and builds the service.
func setup(c *cli.Context, logOut io.Writer) (*service, config.Config, ports.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cfg, nil, err
	}
	log := newLogger(cfg, logOut)
	svc, err := build(c.Context, cfg, log)
	if err != nil {
		return nil, cfg, log, err
	}
	return svc, cfg, log, nil
}

func runServe(c *cli.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	transport := c.String("transport")
	logOut := stderr
	if transport == "http" {
		logOut = nil
	}

	svc, cfg, log, err := setup(c, logOut)
	if err != nil {
		return err
	}
	defer svc.Close()

	switch transport {
	case "stdio":
		bus := stdiobus.New(stdin, stdout)
		defer bus.Close()
		log.Info("Serving ports on stdio")
		err = svc.orch.Serve(c.Context, bus)
	case "http":
		addr := cfg.Listen
		if c.IsSet("listen") {
			addr = c.String("listen")
		}
		err = httpapi.New(svc.orch, svc.doc, log).Start(c.Context, addr)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}

	if errors.Is(err, context.Canceled) {
		log.Info("Interrupted, shutting down...")
		return nil
	}
	return err
}

func requestID(c *cli.Context) pipeline.RequestID {
	if id := c.String("request-id"); id != "" {
		return pipeline.NewRequestID(id)
	}
	return pipeline.NewRequestID(uuid.NewString())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMeasure(c *cli.Context, stdout, stderr io.Writer) error {
	svc, _, _, err := setup(c, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.orch.Measure(c.Context, pipeline.MeasureRequest{
		RequestID:   requestID(c),
		Text:        c.String("text"),
		FontFamily:  c.String("font-family"),
		MaxFontSize: c.Int("max-font-size"),
		MinFontSize: c.Int("min-font-size"),
		MaxWidth:    c.Float64("max-width"),
	})
	if err != nil {
		return err
	}
	return printJSON(stdout, res)
}

func runRecipe(c *cli.Context, stdout, stderr io.Writer) error {
	svc, _, _, err := setup(c, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.orch.MeasureRecipe(c.Context, pipeline.RecipeMeasureRequest{
		RequestID:           requestID(c),
		TitleText:           c.String("title"),
		IngredientsText:     c.String("ingredients"),
		FontFamily:          c.String("font-family"),
		TitleFontSize:       c.Int("title-font-size"),
		TitleMinFontSize:    c.Int("title-min-font-size"),
		SmallFontSize:       c.Int("small-font-size"),
		MaxWidth:            c.Float64("max-width"),
		IngredientsMaxChars: c.Int("ingredients-max-chars"),
	})
	if err != nil {
		return err
	}
	return printJSON(stdout, res)
}

func runRasterize(c *cli.Context, stdout, stderr io.Writer) error {
	svc, _, log, err := setup(c, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	svgID := c.String("svg-id")
	if path := c.String("file"); path != "" {
		store, ok := svc.doc.(ports.ElementStore)
		if !ok {
			return errors.New(l10n.T("--file requires a memory or chrome document"))
		}
		markup, err := svc.fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		store.Put(svgID, markup)
	}

	res := svc.orch.Rasterize(c.Context, pipeline.RasterRequest{
		RequestID: requestID(c),
		SVGID:     svgID,
		Width:     c.Int("width"),
		Height:    c.Int("height"),
		Rotate:    c.Bool("rotate"),
	})

	output := c.String("output")
	if output == "" {
		if err := printJSON(stdout, res); err != nil {
			return err
		}
		if !res.OK() {
			return errors.New(*res.Error)
		}
		return nil
	}

	if !res.OK() {
		return errors.New(*res.Error)
	}
	_, encoded, _ := strings.Cut(*res.DataURL, ",")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode data URL: %w", err)
	}
	if err := svc.fs.WriteFile(output, data); err != nil {
		return err
	}
	log.Info("Output saved to %s", output)
	return nil
}
