package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"web-page-analyzer/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExporter(t *testing.T) *ExportService {
	t.Helper()

	return NewExportService(ExportServiceParams{
		Config: testConfig(t),
		Logger: testLogger(),
	})
}

func sampleRecords() []entity.ActionRecord {
	return []entity.ActionRecord{
		{
			ID:          uuid.New(),
			Timestamp:   time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC),
			Kind:        entity.ActionNavigate,
			URL:         "https://example.com/?q=a&lang=de",
			Description: "Navigated to https://example.com/?q=a&lang=de",
		},
		{
			ID:          uuid.New(),
			Timestamp:   time.Date(2026, 8, 27, 10, 30, 5, 0, time.UTC),
			Kind:        entity.ActionInput,
			Locator:     `//*[@id="q"]`,
			Tag:         "input",
			Value:       "it's a test",
			URL:         "https://example.com/",
			Description: "Entered text in input#q",
			Attributes:  map[string]string{"id": "q"},
		},
		{
			ID:          uuid.New(),
			Timestamp:   time.Date(2026, 8, 27, 10, 30, 9, 0, time.UTC),
			Kind:        entity.ActionClick,
			Locator:     `//button[text()="Search"]`,
			Tag:         "button",
			Text:        "Search",
			URL:         "https://example.com/",
			Description: "Clicked on button with text 'Search'",
		},
	}
}

func TestSaveRecordsWritesIndentedJSON(t *testing.T) {
	exporter := newTestExporter(t)

	path, err := exporter.SaveRecords(context.Background(), sampleRecords(), "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Indented and with HTML escaping off: URLs stay readable.
	assert.Contains(t, string(data), "\n  {")
	assert.Contains(t, string(data), "https://example.com/?q=a&lang=de")
	assert.NotContains(t, string(data), `\u0026`)

	var parsed []entity.ActionRecord
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Len(t, parsed, 3)
	assert.Equal(t, entity.ActionInput, parsed[1].Kind)
}

func TestSaveRecordsDefaultPathIsTimestamped(t *testing.T) {
	exporter := newTestExporter(t)

	path, err := exporter.SaveRecords(context.Background(), nil, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "actions_"))
	assert.True(t, strings.HasSuffix(path, ".json"))
}

func TestSaveAnalysis(t *testing.T) {
	exporter := newTestExporter(t)

	analysis := &entity.PageAnalysis{
		ID:    uuid.New(),
		URL:   "https://example.com/",
		Title: "Example",
		Elements: []entity.ElementInfo{{
			TagName:  "button",
			Category: entity.CategoryButtons,
			Locator:  `//*[@id="go"]`,
		}},
		Structure: &entity.PageStructure{FormCount: 1},
		Metadata:  map[string]any{"element_count": 1},
		Timestamp: time.Now(),
	}

	path, err := exporter.SaveAnalysis(context.Background(), analysis, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed entity.PageAnalysis
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, analysis.URL, parsed.URL)
	assert.Len(t, parsed.Elements, 1)
}

func TestSaveAnalysisNilRejected(t *testing.T) {
	exporter := newTestExporter(t)

	_, err := exporter.SaveAnalysis(context.Background(), nil, "")
	require.Error(t, err)
}

func TestWriteScript(t *testing.T) {
	exporter := newTestExporter(t)

	path, err := exporter.WriteScript(context.Background(), sampleRecords(), "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	script := string(data)

	assert.Contains(t, script, "from selenium import webdriver")
	assert.Contains(t, script, "from selenium.webdriver.common.by import By")
	assert.Contains(t, script, "driver.get('https://example.com/?q=a&lang=de')")
	assert.Contains(t, script, `driver.find_element(By.XPATH, '//*[@id="q"]')`)
	assert.Contains(t, script, `element.send_keys('it\'s a test')`)
	assert.Contains(t, script, `driver.find_element(By.XPATH, '//button[text()="Search"]').click()`)
	assert.Contains(t, script, "finally:")
	assert.Contains(t, script, "driver.quit()")
	assert.True(t, strings.HasSuffix(path, ".py"))
}

func TestWriteScriptEmptySequence(t *testing.T) {
	exporter := newTestExporter(t)

	path, err := exporter.WriteScript(context.Background(), nil, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "pass")
}

func TestWriteReport(t *testing.T) {
	exporter := newTestExporter(t)

	path, err := exporter.WriteReport(context.Background(), sampleRecords(), "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)

	assert.Contains(t, report, "RECORDED SESSION REPORT")
	assert.Contains(t, report, "Total actions: 3")
	assert.Contains(t, report, "navigate: 1")
	assert.Contains(t, report, "[1] NAVIGATE")
	assert.Contains(t, report, "[3] CLICK")
	assert.Contains(t, report, `Locator:     //button[text()="Search"]`)
}

func TestExportHonorsExplicitPath(t *testing.T) {
	exporter := newTestExporter(t)

	target := filepath.Join(t.TempDir(), "nested", "out.json")

	path, err := exporter.SaveRecords(context.Background(), sampleRecords(), target)
	require.NoError(t, err)
	assert.Equal(t, target, path)

	_, err = os.Stat(target)
	require.NoError(t, err)
}
