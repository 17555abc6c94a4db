package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/pkg/apperr"
	"web-page-analyzer/pkg/logg"
	"web-page-analyzer/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	exportServiceName = "ExportService"
	exportTracer      = "usecase.export"

	timestampLayout = "20060102_150405"
)

// ExportService persists analysis results and recorded action
// sequences: indented JSON, a plain-text report, and a runnable
// Selenium replay script.
type ExportService struct {
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
}

type ExportServiceParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewExportService(params ExportServiceParams) *ExportService {
	return &ExportService{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, exportServiceName)),
		tracer: otel.Tracer(exportTracer),
	}
}

// SaveAnalysis writes the analysis as indented JSON. An empty path gets
// a timestamped default under the results directory. Returns the path
// actually written.
func (s *ExportService) SaveAnalysis(ctx context.Context, analysis *entity.PageAnalysis, path string) (written string, err error) {
	const op = "SaveAnalysis"
	logger := s.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if analysis == nil {
		return "", apperr.InvalidReqError(op, "analysis", fmt.Errorf("analysis cannot be nil"))
	}

	if path == "" {
		path = filepath.Join(s.config.OutputConfig.ResultsDir,
			fmt.Sprintf("analysis_%s.json", time.Now().Format(timestampLayout)))
	}

	if err := s.writeJSON(op, path, analysis); err != nil {
		return "", err
	}

	logger.Info("Analysis saved",
		zap.String(logg.Path, path),
		zap.Int("elements", len(analysis.Elements)))

	return path, nil
}

// SaveRecords writes the recorded action sequence as an indented JSON
// array, in capture order.
func (s *ExportService) SaveRecords(ctx context.Context, records []entity.ActionRecord, path string) (written string, err error) {
	const op = "SaveRecords"
	logger := s.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.Int("records", len(records)))
	defer func() {
		step.End(err)
	}()

	if path == "" {
		path = filepath.Join(s.config.OutputConfig.ResultsDir,
			fmt.Sprintf("actions_%s.json", time.Now().Format(timestampLayout)))
	}

	if records == nil {
		records = []entity.ActionRecord{}
	}

	if err := s.writeJSON(op, path, records); err != nil {
		return "", err
	}

	logger.Info("Action records saved",
		zap.String(logg.Path, path),
		zap.Int("records", len(records)))

	return path, nil
}

// WriteScript renders the recorded sequence as a standalone Python
// Selenium script, one replay step per action.
func (s *ExportService) WriteScript(ctx context.Context, records []entity.ActionRecord, path string) (written string, err error) {
	const op = "WriteScript"
	logger := s.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.Int("records", len(records)))
	defer func() {
		step.End(err)
	}()

	if path == "" {
		path = filepath.Join(s.config.OutputConfig.ResultsDir,
			fmt.Sprintf("replay_%s.py", time.Now().Format(timestampLayout)))
	}

	if err := s.writeFile(op, path, []byte(renderScript(records))); err != nil {
		return "", err
	}

	logger.Info("Replay script written",
		zap.String(logg.Path, path),
		zap.Int("steps", len(records)))

	return path, nil
}

// WriteReport renders the recorded sequence as a human-readable
// plain-text session report.
func (s *ExportService) WriteReport(ctx context.Context, records []entity.ActionRecord, path string) (written string, err error) {
	const op = "WriteReport"
	logger := s.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.Int("records", len(records)))
	defer func() {
		step.End(err)
	}()

	if path == "" {
		path = filepath.Join(s.config.OutputConfig.ResultsDir,
			fmt.Sprintf("report_%s.txt", time.Now().Format(timestampLayout)))
	}

	if err := s.writeFile(op, path, []byte(renderReport(records))); err != nil {
		return "", err
	}

	logger.Info("Session report written", zap.String(logg.Path, path))

	return path, nil
}

func (s *ExportService) writeJSON(op, path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeExportFailed, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageExport,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeExportFailed, err, map[string]any{
			apperr.MetaReason: "create_failed",
			apperr.MetaStage:  apperr.StageExport,
		})
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(payload); err != nil {
		return apperr.Wrap(op, apperr.CodeExportFailed, err, map[string]any{
			apperr.MetaReason: "encode_failed",
			apperr.MetaStage:  apperr.StageExport,
		})
	}

	return nil
}

func (s *ExportService) writeFile(op, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeExportFailed, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageExport,
		})
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.Wrap(op, apperr.CodeExportFailed, err, map[string]any{
			apperr.MetaReason: "write_failed",
			apperr.MetaStage:  apperr.StageExport,
		})
	}

	return nil
}

func renderScript(records []entity.ActionRecord) string {
	var b strings.Builder

	b.WriteString("#!/usr/bin/env python3\n")
	b.WriteString(fmt.Sprintf("# Recorded browser session replay, generated %s.\n",
		time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString("\nimport time\n")
	b.WriteString("\nfrom selenium import webdriver\n")
	b.WriteString("from selenium.webdriver.common.by import By\n")
	b.WriteString("\n\ndef main():\n")
	b.WriteString("    driver = webdriver.Chrome()\n")
	b.WriteString("    driver.implicitly_wait(10)\n")
	b.WriteString("    try:\n")

	if len(records) == 0 {
		b.WriteString("        pass\n")
	}

	for i, record := range records {
		b.WriteString(fmt.Sprintf("        # Step %d: %s\n", i+1, record.Description))

		switch record.Kind {
		case entity.ActionNavigate:
			b.WriteString(fmt.Sprintf("        driver.get(%s)\n", pyQuote(record.URL)))
		case entity.ActionClick:
			b.WriteString(fmt.Sprintf("        driver.find_element(By.XPATH, %s).click()\n",
				pyQuote(record.Locator)))
		case entity.ActionInput:
			b.WriteString(fmt.Sprintf("        element = driver.find_element(By.XPATH, %s)\n",
				pyQuote(record.Locator)))
			b.WriteString("        element.clear()\n")
			b.WriteString(fmt.Sprintf("        element.send_keys(%s)\n", pyQuote(record.Value)))
		case entity.ActionSubmit:
			b.WriteString(fmt.Sprintf("        driver.find_element(By.XPATH, %s).submit()\n",
				pyQuote(record.Locator)))
		}

		b.WriteString("        time.sleep(1)\n")
	}

	b.WriteString("    finally:\n")
	b.WriteString("        driver.quit()\n")
	b.WriteString("\n\nif __name__ == \"__main__\":\n")
	b.WriteString("    main()\n")

	return b.String()
}

// pyQuote renders a Python single-quoted string literal.
func pyQuote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "'", `\'`)
	value = strings.ReplaceAll(value, "\n", `\n`)

	return "'" + value + "'"
}

func renderReport(records []entity.ActionRecord) string {
	var b strings.Builder

	b.WriteString("RECORDED SESSION REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Total actions: %d\n", len(records)))

	counts := map[entity.ActionKind]int{}
	for _, record := range records {
		counts[record.Kind]++
	}

	for _, kind := range []entity.ActionKind{
		entity.ActionNavigate, entity.ActionClick, entity.ActionInput, entity.ActionSubmit,
	} {
		if counts[kind] > 0 {
			b.WriteString(fmt.Sprintf("  %s: %d\n", kind, counts[kind]))
		}
	}

	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for i, record := range records {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, strings.ToUpper(string(record.Kind))))
		b.WriteString(fmt.Sprintf("    Time:        %s\n", record.Timestamp.Format("15:04:05")))
		b.WriteString(fmt.Sprintf("    Description: %s\n", record.Description))

		if record.Locator != "" {
			b.WriteString(fmt.Sprintf("    Locator:     %s\n", record.Locator))
		}

		if record.URL != "" {
			b.WriteString(fmt.Sprintf("    Page:        %s\n", record.URL))
		}

		if record.Screenshot != "" {
			b.WriteString(fmt.Sprintf("    Screenshot:  %s\n", record.Screenshot))
		}

		b.WriteString("\n")
	}

	return b.String()
}
