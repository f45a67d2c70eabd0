package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// ErrNarrativeUnavailable means every configured model failed. Callers
// treat it as non-fatal and render the report without commentary.
var ErrNarrativeUnavailable = errors.New("narrative service unavailable")

const systemPrompt = "You are an experienced technical analyst. Given a JSON document " +
	"with the latest intraday bars and indicator values for one stock, write a short " +
	"commentary (3-5 sentences) on the current posture: trend, momentum, and anything " +
	"notable in the stochastic, RSI or Bollinger readings. Values marked " +
	"\"insufficient data\" mean the indicator has not warmed up yet; never guess them. " +
	"Do not give financial advice."

// Client wraps the OpenAI API client with an ordered fallback over
// model identifiers: each request tries the models in order and the
// first success wins.
type Client struct {
	client *openai.Client
	models []string
	logger zerolog.Logger
}

// NewClient creates a new narrative client
func NewClient(apiKey string, modelIDs []string) *Client {
	return newClient(openai.DefaultConfig(apiKey), modelIDs)
}

// NewClientWithBaseURL creates a narrative client against a custom
// endpoint (proxy deployments, tests).
func NewClientWithBaseURL(apiKey, baseURL string, modelIDs []string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newClient(cfg, modelIDs)
}

func newClient(cfg openai.ClientConfig, modelIDs []string) *Client {
	if len(modelIDs) == 0 {
		modelIDs = []string{openai.GPT4oMini}
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		models: modelIDs,
		logger: log.With().Str("component", "openai_client").Logger(),
	}
}

// Commentary sends the payload to the first model that answers and
// returns its free-text commentary. A per-model failure is logged and
// the next identifier is tried; when all fail the error wraps
// ErrNarrativeUnavailable.
func (c *Client) Commentary(ctx context.Context, payload *models.NarrativePayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	var lastErr error
	for _, model := range c.models {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := c.complete(ctx, model, string(raw))
		if err != nil {
			c.logger.Warn().Err(err).Str("model", model).Msg("Narrative model failed, trying next")
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: %v", ErrNarrativeUnavailable, lastErr)
}

func (c *Client) complete(ctx context.Context, model, document string) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: document,
				},
			},
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}
	return resp.Choices[0].Message.Content, nil
}
