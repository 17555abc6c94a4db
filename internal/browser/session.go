package browser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"web-page-analyzer/internal/analyzer"
	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/internal/ports"
	"web-page-analyzer/pkg/apperr"
	"web-page-analyzer/pkg/logg"
	"web-page-analyzer/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionName   = "BrowserSession"
	sessionTracer = "browser.session"

	drainExpression = `() => window.__analyzerRecorder ? window.__analyzerRecorder.drain() : []`
	probeExpression = `() => typeof window.__analyzerRecorder !== 'undefined'`
)

// Session owns one playwright browser page with an explicit
// open -> use -> close lifecycle. It is not safe for concurrent use;
// callers serialize or run independent sessions.
type Session struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewSession(params Params) *Session {
	return &Session{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, sessionName)),
		tracer: otel.Tracer(sessionTracer),
		ready:  false,
	}
}

func (s *Session) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching browser...")
	step.AddEvent("installing playwright")

	err = playwright.Install()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_install_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	s.playwright = pw

	if s.config.BrowserConfig.UserDataDir != "" {
		return s.launchPersistent(ctx)
	}

	return s.launchNew(ctx)
}

func (s *Session) launchPersistent(ctx context.Context) (err error) {
	const op = "launchPersistent"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching persistent browser context")

	userDataDir := s.config.BrowserConfig.UserDataDir

	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	options := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(s.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(s.config.BrowserConfig.SlowMo)),
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--window-size=1920,1080",
		},
	}

	browserContext, err := s.playwright.Chromium.LaunchPersistentContext(userDataDir, options)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "launch_persistent_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	s.browserContext = browserContext

	pages := browserContext.Pages()

	if len(pages) > 0 {
		s.page = pages[0]
		logger.Info("Using existing page")
	} else {
		page, err := browserContext.NewPage()
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "new_page_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
		s.page = page
		logger.Info("Created new page")
	}

	s.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (s *Session) launchNew(ctx context.Context) (err error) {
	const op = "launchNew"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching new browser")

	browserOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(s.config.BrowserConfig.SlowMo)),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
		},
	}

	browser, err := s.playwright.Chromium.Launch(browserOptions)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	s.browser = browser

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
	}

	browserContext, err := browser.NewContext(contextOptions)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	s.browserContext = browserContext

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	s.page = page

	s.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (s *Session) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Closing browser session...")

	if s.browserContext != nil {
		if err := s.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	if s.playwright != nil {
		if err := s.playwright.Stop(); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
	}

	s.ready = false
	logger.Info("Browser closed")

	return nil
}

func (s *Session) ensurePageActive(ctx context.Context) error {
	if s.browserContext == nil {
		return apperr.WrapErrorWithReason("ensurePageActive", apperr.CodeSessionLost, "browser_context_gone")
	}

	if s.page != nil && !s.page.IsClosed() {
		return nil
	}

	s.logger.Info("Page closed, reconnecting to active page...")

	for _, p := range s.browserContext.Pages() {
		if !p.IsClosed() {
			s.page = p
			s.logger.Info("Reconnected to existing page")

			return nil
		}
	}

	s.logger.Info("No active pages found, creating new page...")

	page, err := s.browserContext.NewPage()
	if err != nil {
		return apperr.Wrap("ensurePageActive", apperr.CodeSessionLost, err, map[string]any{
			apperr.MetaReason: "new_page_failed",
		})
	}

	s.page = page

	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if !s.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return err
	}

	step.AddEvent("navigating to URL")

	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.config.BrowserConfig.Timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})

	if err != nil {
		code := apperr.CodeInternal
		reason := "goto_failed"

		if isTimeoutErr(err) {
			code = apperr.CodeRenderTimeout
			reason = "render_timeout"
		} else if isClosedErr(err) {
			code = apperr.CodeSessionLost
			reason = "session_lost"
		}

		return apperr.Wrap(op, code, err, map[string]any{
			apperr.MetaReason: reason,
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	step.AddEvent("navigation completed")

	return nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	const op = "URL"

	if !s.ready {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return "", err
	}

	return s.page.URL(), nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	const op = "Title"

	if !s.ready {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return "", err
	}

	title, err := s.page.Title()
	if err != nil {
		return "", s.classify(op, err)
	}

	return title, nil
}

func (s *Session) Document(ctx context.Context) (analyzer.Document, error) {
	const op = "Document"

	if !s.ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return nil, err
	}

	return &document{page: s.page}, nil
}

func (s *Session) QueryAll(ctx context.Context, selector string) (elements []ports.PageElement, err error) {
	const op = "QueryAll"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if !s.ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return nil, err
	}

	handles, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, s.classify(op, err)
	}

	elements = make([]ports.PageElement, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, newPageElement(handle))
	}

	return elements, nil
}

func (s *Session) Screenshot(ctx context.Context, path string) (err error) {
	const op = "Screenshot"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Path, path))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if !s.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return err
	}

	_, err = s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(false),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(60),
	})

	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "screenshot_failed",
			apperr.MetaStage:  apperr.StageScreenshot,
		})
	}

	return nil
}

func (s *Session) InjectRecorder(ctx context.Context, debounceMs int) (err error) {
	const op = "InjectRecorder"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if !s.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return err
	}

	if _, err := s.page.Evaluate(captureScript(debounceMs)); err != nil {
		return s.classify(op, err)
	}

	return nil
}

func (s *Session) RecorderInjected(ctx context.Context) (bool, error) {
	const op = "RecorderInjected"

	if !s.ready {
		return false, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return false, err
	}

	result, err := s.page.Evaluate(probeExpression)
	if err != nil {
		return false, s.classify(op, err)
	}

	injected, _ := result.(bool)

	return injected, nil
}

func (s *Session) DrainEvents(ctx context.Context) (events []entity.RawEvent, err error) {
	const op = "DrainEvents"

	if !s.ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return nil, err
	}

	result, err := s.page.Evaluate(drainExpression)
	if err != nil {
		return nil, s.classify(op, err)
	}

	items, ok := result.([]interface{})
	if !ok {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInternal, "unexpected_drain_result_type")
	}

	events = make([]entity.RawEvent, 0, len(items))

	for _, item := range items {
		eventMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		event := entity.RawEvent{
			Key:        getString(eventMap, "key"),
			Ref:        getString(eventMap, "ref"),
			Kind:       getString(eventMap, "kind"),
			Locator:    getString(eventMap, "locator"),
			Tag:        getString(eventMap, "tag"),
			Text:       getString(eventMap, "text"),
			Value:      getString(eventMap, "value"),
			URL:        getString(eventMap, "url"),
			Attributes: make(map[string]string),
		}

		if attrs, ok := eventMap["attributes"].(map[string]interface{}); ok {
			for k, v := range attrs {
				if str, ok := v.(string); ok {
					event.Attributes[k] = str
				}
			}
		}

		events = append(events, event)
	}

	return events, nil
}

func (s *Session) EventTarget(ctx context.Context, ref string) (analyzer.Element, error) {
	const op = "EventTarget"

	if !s.ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := s.ensurePageActive(ctx); err != nil {
		return nil, err
	}

	jsHandle, err := s.page.EvaluateHandle(
		`ref => window.__analyzerRecorder ? window.__analyzerRecorder.target(ref) : null`, ref)
	if err != nil {
		return nil, s.classify(op, err)
	}

	element := jsHandle.AsElement()
	if element == nil {
		return nil, apperr.NotFoundError(op, fmt.Errorf("event target %q not found", ref))
	}

	return newPageElement(element), nil
}

func (s *Session) IsReady() bool {
	return s.ready
}

// classify maps raw renderer errors onto the session error taxonomy.
func (s *Session) classify(op string, err error) error {
	switch {
	case isTimeoutErr(err):
		return apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason: "renderer_timeout",
		})
	case isClosedErr(err):
		return apperr.Wrap(op, apperr.CodeSessionLost, err, map[string]any{
			apperr.MetaReason: "session_lost",
		})
	default:
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "renderer_error",
		})
	}
}

func isTimeoutErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Timeout")
}

func isClosedErr(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	return strings.Contains(msg, "Target closed") ||
		strings.Contains(msg, "has been closed") ||
		strings.Contains(msg, "Connection closed")
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}
