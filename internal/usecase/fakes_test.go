package usecase

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"web-page-analyzer/internal/analyzer"
	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/internal/ports"
	"web-page-analyzer/pkg/apperr"

	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		AppConfig:     &config.AppConfig{},
		BrowserConfig: &config.BrowserConfig{},
		AnalyzerConfig: &config.AnalyzerConfig{
			MaxElementsPerSelector: 100,
			MaxSurroundingText:     200,
			MaxVisibleText:         100,
			ProbeTimeoutMs:         50,
		},
		RecorderConfig: &config.RecorderConfig{
			PollIntervalMs:   10,
			DebounceWindowMs: 300,
			BackoffMs:        20,
			StopGraceMs:      200,
		},
		DescriberConfig: &config.DescriberConfig{},
		OutputConfig: &config.OutputConfig{
			ResultsDir:    filepath.Join(dir, "results"),
			ScreenshotDir: filepath.Join(dir, "screenshots"),
		},
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// fakeElement is a minimal ports.PageElement: a detached node with
// static values.
type fakeElement struct {
	tag       string
	text      string
	attrs     map[string]string
	displayed bool
	box       entity.BoundingBox
	enabled   bool
}

func newFakeElement(tag string, attrs map[string]string, text string) *fakeElement {
	return &fakeElement{
		tag:       tag,
		text:      text,
		attrs:     attrs,
		displayed: true,
		box:       entity.BoundingBox{Width: 100, Height: 20},
		enabled:   true,
	}
}

func (e *fakeElement) Tag() (string, error) { return e.tag, nil }

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attributes() (map[string]string, error) {
	if e.attrs == nil {
		return map[string]string{}, nil
	}

	return e.attrs, nil
}

func (e *fakeElement) Parent() (analyzer.Element, error) { return nil, nil }

func (e *fakeElement) PrevSibling() (analyzer.Element, error) { return nil, nil }

func (e *fakeElement) SameTagOrdinal() (int, bool, error) { return 1, false, nil }

func (e *fakeElement) Displayed() (bool, error) { return e.displayed, nil }

func (e *fakeElement) Box() (entity.BoundingBox, error) { return e.box, nil }

func (e *fakeElement) Enabled() (bool, error) { return e.enabled, nil }

func (e *fakeElement) WaitClickable(time.Duration) error { return nil }

// fakeDoc implements analyzer.Document over static data.
type fakeDoc struct {
	labels map[string]string
	counts map[string]int
	forms  []entity.FormInfo
}

func (d *fakeDoc) LabelForID(id string) (string, error) { return d.labels[id], nil }

func (d *fakeDoc) Count(selector string) (int, error) { return d.counts[selector], nil }

func (d *fakeDoc) Forms() ([]entity.FormInfo, error) { return d.forms, nil }

// fakeSession is an in-memory ports.BrowserSession.
type fakeSession struct {
	mu sync.Mutex

	ready    bool
	url      string
	title    string
	doc      analyzer.Document
	elements map[string][]ports.PageElement

	injected    bool
	injectCount int
	batches     [][]entity.RawEvent
	drainErr    error
	targets     map[string]analyzer.Element

	screenshots []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		ready:    true,
		doc:      &fakeDoc{},
		elements: map[string][]ports.PageElement{},
		targets:  map[string]analyzer.Element{},
	}
}

func (s *fakeSession) Launch(context.Context) error { return nil }

func (s *fakeSession) Close(context.Context) error { return nil }

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url

	return nil
}

func (s *fakeSession) URL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.url, nil
}

func (s *fakeSession) setURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

func (s *fakeSession) Title(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.title, nil
}

func (s *fakeSession) Document(context.Context) (analyzer.Document, error) {
	return s.doc, nil
}

func (s *fakeSession) QueryAll(_ context.Context, selector string) ([]ports.PageElement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.elements[selector], nil
}

func (s *fakeSession) Screenshot(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenshots = append(s.screenshots, path)

	return nil
}

func (s *fakeSession) InjectRecorder(context.Context, int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injected = true
	s.injectCount++

	return nil
}

func (s *fakeSession) RecorderInjected(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.injected, nil
}

func (s *fakeSession) dropInjection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injected = false
}

func (s *fakeSession) injections() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.injectCount
}

func (s *fakeSession) pushEvents(events ...entity.RawEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, events)
}

func (s *fakeSession) DrainEvents(context.Context) ([]entity.RawEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drainErr != nil {
		return nil, s.drainErr
	}

	if len(s.batches) == 0 {
		return nil, nil
	}

	batch := s.batches[0]
	s.batches = s.batches[1:]

	return batch, nil
}

func (s *fakeSession) EventTarget(_ context.Context, ref string) (analyzer.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targets[ref]
	if !ok {
		return nil, apperr.NotFoundError("EventTarget", nil)
	}

	return target, nil
}

func (s *fakeSession) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready
}

// fakeDescriber returns a canned description, optionally after a delay.
type fakeDescriber struct {
	mu          sync.Mutex
	available   bool
	description string
	err         error
	delay       time.Duration
	calls       int
}

func (d *fakeDescriber) Describe(ctx context.Context, _ entity.ActionRecord) (string, error) {
	d.mu.Lock()
	d.calls++
	delay := d.delay
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.description, d.err
}

func (d *fakeDescriber) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.calls
}

func (d *fakeDescriber) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.available
}
