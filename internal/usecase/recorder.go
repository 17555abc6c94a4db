package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"web-page-analyzer/internal/analyzer"
	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/describe"
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/internal/ports"
	"web-page-analyzer/pkg/apperr"
	"web-page-analyzer/pkg/logg"
	"web-page-analyzer/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	recorderServiceName = "RecorderService"
	recorderTracer      = "usecase.recorder"

	resultsBuffer   = 64
	describeTimeout = 5 * time.Second
	doneWaitCushion = 2 * time.Second
)

// RecorderService captures a user's live interactions with the page.
// State machine: Idle -> Recording -> Idle. One background poll task
// drains the in-page event buffer; the action sequence and dedup state
// are owned by this instance and appended to only by the poll task.
type RecorderService struct {
	config    *config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
	session   ports.BrowserSession
	describer ports.Describer

	mu         sync.Mutex
	state      entity.RecorderState
	stopping   bool
	sessionID  uuid.UUID
	records    []entity.ActionRecord
	seen       map[string]struct{}
	lastURL    string
	lastValues map[string]string
	results    chan entity.ActionRecord
	stopChan   chan struct{}
	doneChan   chan struct{}
}

type RecorderServiceParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Session   ports.BrowserSession
	Describer ports.Describer
}

func NewRecorderService(params RecorderServiceParams) *RecorderService {
	return &RecorderService{
		config:    params.Config,
		logger:    params.Logger.With(zap.String(logg.Layer, recorderServiceName)),
		tracer:    otel.Tracer(recorderTracer),
		session:   params.Session,
		describer: params.Describer,
		state:     entity.RecorderIdle,
	}
}

func (s *RecorderService) State() entity.RecorderState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Results exposes retained actions for asynchronous consumption (live
// UI updates). The channel is buffered; the poll task never blocks on
// a slow consumer.
func (s *RecorderService) Results() <-chan entity.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.results
}

func (s *RecorderService) Records() []entity.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.ActionRecord, len(s.records))
	copy(out, s.records)

	return out
}

func (s *RecorderService) Start(ctx context.Context) (err error) {
	const op = "Start"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == entity.RecorderRecording {
		return apperr.WrapErrorWithReason(op, apperr.CodeRecorderBusy, "already_recording")
	}

	if !s.session.IsReady() {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	url, err := s.session.URL(ctx)
	if err != nil {
		return err
	}

	step.AddEvent("injecting capture hook")

	if err := s.session.InjectRecorder(ctx, s.config.RecorderConfig.DebounceWindowMs); err != nil {
		return err
	}

	s.sessionID = uuid.New()
	s.records = nil
	s.seen = make(map[string]struct{})
	s.lastValues = make(map[string]string)
	s.lastURL = url
	s.results = make(chan entity.ActionRecord, resultsBuffer)
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.state = entity.RecorderRecording

	logger.Info("Recording started",
		zap.String(logg.SessionID, s.sessionID.String()),
		zap.String(logg.URL, url))

	go s.pollLoop(s.stopChan, s.doneChan, s.results)

	return nil
}

// Stop flips the state and waits for the poll task's final drain,
// bounded by the configured grace window. The returned snapshot is
// final: a drain still in flight past the grace wait is abandoned and
// its events are dropped, never appended behind the caller's back.
// Dedup state is reset by the next Start.
func (s *RecorderService) Stop(ctx context.Context) (records []entity.ActionRecord, err error) {
	const op = "Stop"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	s.mu.Lock()

	if s.state != entity.RecorderRecording || s.stopping {
		records = make([]entity.ActionRecord, len(s.records))
		copy(records, s.records)
		s.mu.Unlock()

		return records, nil
	}

	s.stopping = true
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)

	step.AddEvent("waiting for final drain")

	grace := time.Duration(s.config.RecorderConfig.StopGraceMs)*time.Millisecond + doneWaitCushion

	select {
	case <-doneChan:
	case <-time.After(grace):
		logger.Warn("Poll task did not finish within the stop grace window")
	case <-ctx.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = entity.RecorderIdle
	s.stopping = false

	records = make([]entity.ActionRecord, len(s.records))
	copy(records, s.records)

	logger.Info("Recording stopped",
		zap.String(logg.SessionID, s.sessionID.String()),
		zap.Int("actions", len(records)))

	return records, nil
}

func (s *RecorderService) pollLoop(stopChan <-chan struct{}, doneChan chan<- struct{}, results chan<- entity.ActionRecord) {
	defer close(doneChan)

	ctx := context.Background()
	interval := time.Duration(s.config.RecorderConfig.PollIntervalMs) * time.Millisecond
	backoff := time.Duration(s.config.RecorderConfig.BackoffMs) * time.Millisecond

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			grace := time.Duration(s.config.RecorderConfig.StopGraceMs) * time.Millisecond
			drainCtx, cancel := context.WithTimeout(ctx, grace)
			if err := s.drainOnce(drainCtx, results); err != nil {
				s.logger.Warn("Final drain failed", zap.Error(err))
			}
			cancel()

			return
		case <-ticker.C:
			if err := s.drainOnce(ctx, results); err != nil {
				s.logger.Warn("Event drain failed, backing off", zap.Error(err))

				select {
				case <-stopChan:
					return
				case <-time.After(backoff):
				}

				// One reinjection attempt, then back to normal polling.
				if err := s.session.InjectRecorder(ctx, s.config.RecorderConfig.DebounceWindowMs); err != nil {
					s.logger.Warn("Capture hook reinjection failed", zap.Error(err))
				}
			}
		}
	}
}

func (s *RecorderService) drainOnce(ctx context.Context, results chan<- entity.ActionRecord) error {
	injected, err := s.session.RecorderInjected(ctx)
	if err != nil {
		return err
	}

	// A full page load wipes the hook; reinstall before draining.
	if !injected {
		if err := s.session.InjectRecorder(ctx, s.config.RecorderConfig.DebounceWindowMs); err != nil {
			return err
		}
	}

	url, err := s.session.URL(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	navigated := url != s.lastURL
	s.mu.Unlock()

	if navigated {
		s.processEvent(ctx, entity.RawEvent{
			Kind: string(entity.ActionNavigate),
			URL:  url,
		}, results)
	}

	events, err := s.session.DrainEvents(ctx)
	if err != nil {
		return err
	}

	for _, event := range events {
		s.processEvent(ctx, event, results)
	}

	return nil
}

// processEvent applies the dedup rules and converts a retained event
// into an ActionRecord.
func (s *RecorderService) processEvent(ctx context.Context, event entity.RawEvent, results chan<- entity.ActionRecord) {
	kind, ok := actionKind(event.Kind)
	if !ok {
		return
	}

	key := event.Key
	if key == "" {
		key = fmt.Sprintf("%s-%d", event.Kind, time.Now().UnixNano())
	}

	s.mu.Lock()

	// A drain that outlives the stop grace window finishes against a
	// session that is already Idle; its events are dropped so the
	// snapshot returned by Stop stays final.
	if s.state != entity.RecorderRecording {
		s.mu.Unlock()

		return
	}

	if _, dup := s.seen[key]; dup {
		s.mu.Unlock()

		return
	}
	s.seen[key] = struct{}{}

	switch kind {
	case entity.ActionNavigate:
		if event.URL == s.lastURL {
			s.mu.Unlock()

			return
		}
		s.lastURL = event.URL
	case entity.ActionInput:
		elementKey := inputElementKey(event)
		if s.lastValues[elementKey] == event.Value {
			s.mu.Unlock()

			return
		}
		s.lastValues[elementKey] = event.Value
	}

	s.mu.Unlock()

	record := s.buildRecord(ctx, kind, event)

	s.mu.Lock()

	// Re-checked after buildRecord: describing and screenshotting can
	// take seconds, during which Stop may have returned.
	if s.state != entity.RecorderRecording {
		s.mu.Unlock()

		return
	}

	s.records = append(s.records, record)
	s.mu.Unlock()

	select {
	case results <- record:
	default:
		// Consumer is behind; the record is still in the sequence.
	}
}

func (s *RecorderService) buildRecord(ctx context.Context, kind entity.ActionKind, event entity.RawEvent) entity.ActionRecord {
	record := entity.ActionRecord{
		ID:         uuid.New(),
		Timestamp:  time.Now(),
		Kind:       kind,
		Locator:    s.resolveLocator(ctx, event),
		Text:       event.Text,
		Value:      event.Value,
		Tag:        event.Tag,
		Attributes: event.Attributes,
		URL:        event.URL,
	}

	record.Description = describe.Fallback(record)

	if s.describer != nil && s.describer.Available() {
		describeCtx, cancel := context.WithTimeout(ctx, describeTimeout)
		if description, err := s.describer.Describe(describeCtx, record); err == nil && description != "" {
			record.Description = description
		} else if err != nil {
			s.logger.Debug("Remote description failed, using fallback", zap.Error(err))
		}
		cancel()
	}

	if s.config.RecorderConfig.Screenshots {
		path := filepath.Join(s.config.OutputConfig.ScreenshotDir,
			fmt.Sprintf("action_%s.jpg", record.ID))

		if err := s.session.Screenshot(ctx, path); err == nil {
			record.Screenshot = path
		}
	}

	return record
}

// resolveLocator runs the locator generator against the live event
// target; a stale or missing target falls back to the in-page path
// captured with the event.
func (s *RecorderService) resolveLocator(ctx context.Context, event entity.RawEvent) string {
	if event.Ref == "" {
		return event.Locator
	}

	target, err := s.session.EventTarget(ctx, event.Ref)
	if err != nil || target == nil {
		return event.Locator
	}

	locator, _, err := analyzer.GenerateLocator(target)
	if err != nil {
		return event.Locator
	}

	return locator.Expr
}

func actionKind(kind string) (entity.ActionKind, bool) {
	switch entity.ActionKind(kind) {
	case entity.ActionNavigate, entity.ActionClick, entity.ActionInput, entity.ActionSubmit:
		return entity.ActionKind(kind), true
	default:
		return "", false
	}
}

// inputElementKey identifies "the same field" across events: id, then
// name, then bare tag.
func inputElementKey(event entity.RawEvent) string {
	if id := event.Attributes["id"]; id != "" {
		return id
	}

	if name := event.Attributes["name"]; name != "" {
		return name
	}

	return event.Tag
}
