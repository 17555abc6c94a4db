package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig       *AppConfig
	BrowserConfig   *BrowserConfig
	AnalyzerConfig  *AnalyzerConfig
	RecorderConfig  *RecorderConfig
	DescriberConfig *DescriberConfig
	OutputConfig    *OutputConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type BrowserConfig struct {
	Headless    bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo      int    `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout     int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	UserDataDir string `envconfig:"BROWSER_USER_DATA_DIR" default:""`
}

type AnalyzerConfig struct {
	MaxElementsPerSelector int  `envconfig:"ANALYZER_MAX_ELEMENTS_PER_SELECTOR" default:"100"`
	MaxSurroundingText     int  `envconfig:"ANALYZER_MAX_SURROUNDING_TEXT" default:"200"`
	MaxVisibleText         int  `envconfig:"ANALYZER_MAX_VISIBLE_TEXT" default:"100"`
	ProbeTimeoutMs         int  `envconfig:"ANALYZER_PROBE_TIMEOUT_MS" default:"1000"`
	TakeScreenshot         bool `envconfig:"ANALYZER_TAKE_SCREENSHOT" default:"false"`
}

type RecorderConfig struct {
	PollIntervalMs   int  `envconfig:"RECORDER_POLL_INTERVAL_MS" default:"750"`
	DebounceWindowMs int  `envconfig:"RECORDER_DEBOUNCE_WINDOW_MS" default:"300"`
	BackoffMs        int  `envconfig:"RECORDER_BACKOFF_MS" default:"3000"`
	StopGraceMs      int  `envconfig:"RECORDER_STOP_GRACE_MS" default:"1000"`
	Screenshots      bool `envconfig:"RECORDER_SCREENSHOTS" default:"false"`
}

type DescriberConfig struct {
	Provider string `envconfig:"DESCRIBER_PROVIDER" default:"anthropic"`
	APIKey   string `envconfig:"DESCRIBER_API_KEY" default:""`
	Model    string `envconfig:"DESCRIBER_MODEL" default:"claude-sonnet-4-20250514"`
}

type OutputConfig struct {
	ResultsDir    string `envconfig:"OUTPUT_RESULTS_DIR" default:"./analysis-results"`
	ScreenshotDir string `envconfig:"OUTPUT_SCREENSHOT_DIR" default:"./screenshots"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}
