package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

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
	clientName   = "DescribeClient"
	clientTracer = "describe.client"

	messagesEndpoint = "https://api.anthropic.com/v1/messages"
	maxTokens        = 256
)

// Client generates one-sentence natural-language descriptions of
// recorded actions. When no API key is configured the recorder falls
// back to Fallback, so the client is strictly optional.
type Client struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	httpClient *http.Client
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewClient(params Params) *Client {
	return &Client{
		config:     params.Config,
		logger:     params.Logger.With(zap.String(logg.Layer, clientName)),
		tracer:     otel.Tracer(clientTracer),
		httpClient: &http.Client{},
	}
}

func (c *Client) Available() bool {
	return c.config.DescriberConfig.APIKey != ""
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
}

func (c *Client) Describe(ctx context.Context, record entity.ActionRecord) (description string, err error) {
	const op = "Describe"
	logger := c.logger.With(zap.String(logg.Operation, op), zap.String(logg.Action, string(record.Kind)))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op,
		attribute.String("action", string(record.Kind)))
	defer func() {
		step.End(err)
	}()

	if !c.Available() {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeDescribeFailed, "api_key_missing")
	}

	reqBody := claudeRequest{
		Model:     c.config.DescriberConfig.Model,
		MaxTokens: maxTokens,
		Messages: []claudeMessage{
			{
				Role:    "user",
				Content: buildPrompt(record),
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "marshal_failed",
			apperr.MetaStage:  apperr.StageDescribe,
		})
	}

	step.AddEvent("sending request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "request_create_failed",
			apperr.MetaStage:  apperr.StageDescribe,
		})
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.DescriberConfig.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeDescribeFailed, err, map[string]any{
			apperr.MetaReason: "request_failed",
			apperr.MetaStage:  apperr.StageDescribe,
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeDescribeFailed, err, map[string]any{
			apperr.MetaReason: "read_body_failed",
			apperr.MetaStage:  apperr.StageDescribe,
		})
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Wrap(op, apperr.CodeDescribeFailed,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)), map[string]any{
				apperr.MetaReason: "api_error",
				apperr.MetaStage:  apperr.StageDescribe,
			})
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperr.Wrap(op, apperr.CodeDescribeFailed, err, map[string]any{
			apperr.MetaReason: "unmarshal_failed",
			apperr.MetaStage:  apperr.StageDescribe,
		})
	}

	for _, content := range parsed.Content {
		if content.Type == "text" && content.Text != "" {
			return strings.TrimSpace(content.Text), nil
		}
	}

	return "", apperr.WrapErrorWithReason(op, apperr.CodeDescribeFailed, "empty_response")
}

func buildPrompt(record entity.ActionRecord) string {
	var prompt strings.Builder

	prompt.WriteString("Describe this recorded browser action in one short past-tense sentence ")
	prompt.WriteString("for a test automation report. Respond with the sentence only.\n\n")
	prompt.WriteString(fmt.Sprintf("Action: %s\n", record.Kind))
	prompt.WriteString(fmt.Sprintf("Element tag: %s\n", record.Tag))

	if record.Text != "" {
		prompt.WriteString(fmt.Sprintf("Element text: %s\n", record.Text))
	}

	if record.Locator != "" {
		prompt.WriteString(fmt.Sprintf("Locator: %s\n", record.Locator))
	}

	if record.URL != "" {
		prompt.WriteString(fmt.Sprintf("Page URL: %s\n", record.URL))
	}

	return prompt.String()
}
