// Package textfit implements the text-fit stage: shrink a font until a text
// fits a width, then fall back to greedy word wrapping.
package textfit

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/user/labelkit/pkg/fontspec"
	"github.com/user/labelkit/pkg/pipeline"
	"github.com/user/labelkit/pkg/ports"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// Stage fits MeasureRequest and RecipeMeasureRequest texts.
type Stage struct {
	measurer ports.TextMeasurer
	logger   ports.Logger
	policy   *bluemonday.Policy
}

// Option configures a Stage.
type Option func(*Stage)

// WithMarkupStripping strips HTML tags from incoming text before measuring.
func WithMarkupStripping() Option {
	return func(s *Stage) {
		s.policy = bluemonday.StrictPolicy()
	}
}

// NewStage creates a text-fit stage measuring with m.
func NewStage(m ports.TextMeasurer, logger ports.Logger, opts ...Option) *Stage {
	s := &Stage{
		measurer: m,
		logger:   logger.WithComponent("textfit"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute fits a single text in bold. It never fails.
func (s *Stage) Execute(ctx context.Context, req pipeline.MeasureRequest) (pipeline.MeasureResult, error) {
	text := s.clean(req.Text)
	font := fontspec.Font{
		Weight:   fontspec.WeightBold,
		Families: fontspec.ParseFamilies(req.FontFamily),
	}

	size, lines := Fit(s.measurer, text, font, req.MaxFontSize, req.MinFontSize, req.MaxWidth)
	s.logger.Debug("Fitted text at %dpx into %d lines", size, len(lines))

	return pipeline.MeasureResult{
		RequestID:      req.RequestID,
		FittedFontSize: size,
		Lines:          lines,
	}, nil
}

// ExecuteRecipe fits the bold title and wraps the truncated ingredient list
// at the fixed small size.
func (s *Stage) ExecuteRecipe(ctx context.Context, req pipeline.RecipeMeasureRequest) (pipeline.RecipeMeasureResult, error) {
	families := fontspec.ParseFamilies(req.FontFamily)

	title := s.clean(req.TitleText)
	titleFont := fontspec.Font{Weight: fontspec.WeightBold, Families: families}
	size, titleLines := Fit(s.measurer, title, titleFont, req.TitleFontSize, req.TitleMinFontSize, req.MaxWidth)

	ingredients := Truncate(s.clean(req.IngredientsText), req.IngredientsMaxChars)
	smallFont := fontspec.Font{
		Weight:   fontspec.WeightNormal,
		Size:     float64(req.SmallFontSize),
		Families: families,
	}
	ingredientLines := Wrap(s.measurer, ingredients, smallFont, req.MaxWidth)

	s.logger.Debug("Fitted title at %dpx into %d lines, ingredients into %d lines", size, len(titleLines), len(ingredientLines))

	return pipeline.RecipeMeasureResult{
		RequestID:           req.RequestID,
		TitleFittedFontSize: size,
		TitleLines:          titleLines,
		IngredientLines:     ingredientLines,
	}, nil
}

// RecipeStage exposes ExecuteRecipe as a pipeline.Stage.
func (s *Stage) RecipeStage() pipeline.Stage[pipeline.RecipeMeasureRequest, pipeline.RecipeMeasureResult] {
	return pipeline.StageFunc[pipeline.RecipeMeasureRequest, pipeline.RecipeMeasureResult](s.ExecuteRecipe)
}

func (s *Stage) clean(text string) string {
	if s.policy == nil {
		return text
	}
	return html.UnescapeString(s.policy.Sanitize(text))
}

// Fit returns the largest size in [lower, upper] at which text fits maxWidth,
// stepping down one pixel at a time. When text still overflows at that size
// it is wrapped; otherwise it is returned as a single line.
// Inverted bounds are swapped.
func Fit(m ports.TextMeasurer, text string, font fontspec.Font, upper, lower int, maxWidth float64) (int, []string) {
	size := FitSize(m, text, font, upper, lower, maxWidth)
	sized := font.WithSize(float64(size))
	if m.MeasureText(text, sized) > maxWidth {
		return size, Wrap(m, text, sized, maxWidth)
	}
	return size, []string{text}
}

// FitSize returns the fitted font size without wrapping.
func FitSize(m ports.TextMeasurer, text string, font fontspec.Font, upper, lower int, maxWidth float64) int {
	if upper < lower {
		upper, lower = lower, upper
	}
	size := upper
	for size > lower && m.MeasureText(text, font.WithSize(float64(size))) > maxWidth {
		size--
	}
	return size
}

// Wrap splits text on whitespace and packs words greedily into lines no wider
// than maxWidth. A word wider than maxWidth on its own occupies its own line.
func Wrap(m ports.TextMeasurer, text string, font fontspec.Font, maxWidth float64) []string {
	lines := []string{}
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.MeasureText(candidate, font) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// Truncate shortens text to maxChars runes, the last three being Ellipsis.
// maxChars <= 0 disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	if maxChars <= len(Ellipsis) {
		return Ellipsis[:maxChars]
	}
	return string(runes[:maxChars-len(Ellipsis)]) + Ellipsis
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.MeasureRequest, pipeline.MeasureResult] = (*Stage)(nil)
