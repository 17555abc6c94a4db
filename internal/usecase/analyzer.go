package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"web-page-analyzer/internal/analyzer"
	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/internal/ports"
	"web-page-analyzer/pkg/apperr"
	"web-page-analyzer/pkg/logg"
	"web-page-analyzer/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	analyzerServiceName = "AnalyzerService"
	analyzerTracer      = "usecase.analyzer"
)

// categorySelectors drives element discovery. Iteration order is fixed:
// category order x selector order x DOM order defines the order of the
// resulting element sequence.
var categorySelectors = []struct {
	category  entity.ElementCategory
	selectors []string
}{
	{entity.CategoryButtons, []string{"button", `input[type="button"]`, `input[type="submit"]`}},
	{entity.CategoryInputs, []string{
		`input[type="text"]`, `input[type="password"]`, `input[type="email"]`,
		`input[type="number"]`, `input[type="search"]`, "textarea", "select",
	}},
	{entity.CategoryCheckboxes, []string{`input[type="checkbox"]`, `input[type="radio"]`}},
	{entity.CategoryLinks, []string{"a[href]"}},
	{entity.CategoryForms, []string{"form"}},
	{entity.CategoryMedia, []string{"img", "video"}},
}

type AnalyzerService struct {
	config  *config.Config
	logger  *zap.Logger
	tracer  trace.Tracer
	session ports.BrowserSession
}

type AnalyzerServiceParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Session ports.BrowserSession
}

func NewAnalyzerService(params AnalyzerServiceParams) *AnalyzerService {
	return &AnalyzerService{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, analyzerServiceName)),
		tracer:  otel.Tracer(analyzerTracer),
		session: params.Session,
	}
}

// Analyze renders url and produces the full element inventory. Element
// level failures are skipped; navigation and session failures abort the
// call with no partial result.
func (s *AnalyzerService) Analyze(ctx context.Context, url string) (result *entity.PageAnalysis, err error) {
	const op = "Analyze"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	url = normalizeURL(url)
	if url == "" {
		return nil, apperr.InvalidReqError(op, "url", fmt.Errorf("url cannot be empty"))
	}

	if !s.session.IsReady() {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	started := time.Now()

	step.AddEvent("navigating")

	if err := s.session.Navigate(ctx, url); err != nil {
		return nil, err
	}

	resolvedURL, err := s.session.URL(ctx)
	if err != nil {
		return nil, err
	}

	title, err := s.session.Title(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.session.Document(ctx)
	if err != nil {
		return nil, err
	}

	step.AddEvent("analyzing structure")

	structure, err := analyzer.AnalyzeStructure(doc)
	if err != nil {
		return nil, err
	}

	step.AddEvent("enumerating elements")

	probeTimeout := time.Duration(s.config.AnalyzerConfig.ProbeTimeoutMs) * time.Millisecond
	elements := make([]entity.ElementInfo, 0, 64)
	categoryCounts := make(map[string]int)
	skipped := 0

	for _, group := range categorySelectors {
		for _, selector := range group.selectors {
			handles, err := s.session.QueryAll(ctx, selector)
			if err != nil {
				return nil, err
			}

			if max := s.config.AnalyzerConfig.MaxElementsPerSelector; max > 0 && len(handles) > max {
				handles = handles[:max]
			}

			for _, handle := range handles {
				info, ok := s.inspectElement(doc, handle, group.category, probeTimeout, logger)
				if !ok {
					skipped++

					continue
				}

				elements = append(elements, info)
				categoryCounts[string(group.category)]++
			}
		}
	}

	analysis := &entity.PageAnalysis{
		ID:        uuid.New(),
		URL:       resolvedURL,
		Title:     title,
		Elements:  elements,
		Structure: structure,
		Metadata: map[string]any{
			"element_count":   len(elements),
			"skipped_count":   skipped,
			"category_counts": categoryCounts,
			"duration_ms":     time.Since(started).Milliseconds(),
		},
		Timestamp: time.Now(),
	}

	if s.config.AnalyzerConfig.TakeScreenshot {
		path := filepath.Join(s.config.OutputConfig.ScreenshotDir,
			fmt.Sprintf("analysis_%s.jpg", analysis.ID))

		if err := s.session.Screenshot(ctx, path); err != nil {
			logger.Warn("Failed to capture page screenshot", zap.Error(err))
		} else {
			analysis.Metadata["screenshot"] = path
		}
	}

	logger.Info("Page analysis completed",
		zap.Int("elements", len(elements)),
		zap.Int("skipped", skipped))

	return analysis, nil
}

// inspectElement classifies first and short-circuits on invisibility
// before paying for locator and context extraction. Returns false for
// suppressed or unresolvable elements.
func (s *AnalyzerService) inspectElement(
	doc analyzer.Document,
	handle ports.PageElement,
	category entity.ElementCategory,
	probeTimeout time.Duration,
	logger *zap.Logger,
) (entity.ElementInfo, bool) {
	affordances := analyzer.Classify(handle, probeTimeout)
	if !affordances.Visible {
		return entity.ElementInfo{}, false
	}

	locator, _, err := analyzer.GenerateLocator(handle)
	if err != nil {
		logger.Warn("Element locator resolution failed, skipping element",
			zap.String(logg.Category, string(category)), zap.Error(err))

		return entity.ElementInfo{}, false
	}

	tag, err := handle.Tag()
	if err != nil {
		return entity.ElementInfo{}, false
	}

	attrs, err := handle.Attributes()
	if err != nil {
		attrs = map[string]string{}
	}

	text, err := handle.Text()
	if err != nil {
		text = ""
	}

	box, err := handle.Box()
	if err != nil {
		box = entity.BoundingBox{}
	}

	return entity.ElementInfo{
		TagName:      tag,
		Category:     category,
		Locator:      locator.Expr,
		LocatorKind:  locator.Kind,
		CSSSelector:  analyzer.GenerateCSS(handle),
		Text:         truncateText(strings.TrimSpace(text), s.config.AnalyzerConfig.MaxVisibleText),
		Attributes:   attrs,
		Visible:      affordances.Visible,
		Clickable:    affordances.Clickable,
		Interactable: affordances.Interactable,
		BoundingBox:  box,
		Context:      analyzer.ExtractContext(doc, handle, s.config.AnalyzerConfig.MaxSurroundingText),
	}, true
}

func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") &&
		!strings.HasPrefix(url, "file://") {
		url = "https://" + url
	}

	return url
}

func truncateText(text string, limit int) string {
	if limit <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}
