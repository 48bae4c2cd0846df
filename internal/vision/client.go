// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vision is the client for the vision model that transcribes page
// rasters to Markdown and captions extracted images. It speaks the OpenAI
// chat-completions API, which a local Ollama server also exposes under /v1,
// so the same client covers both hosted and local models.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pdiddy/pagemill/pkg/types"
)

// DefaultBaseURL targets a local Ollama server's OpenAI-compatible surface.
const DefaultBaseURL = "http://localhost:11434/v1"

const (
	defaultTimeout    = 120 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Client is the vision-model capability the pipeline consumes. Both calls
// fail with a *types.RemoteError on connectivity or model failure; callers
// degrade caption failures to a fallback string, never propagate them.
type Client interface {
	// TranscribePage converts a rendered page image to raw Markdown.
	TranscribePage(ctx context.Context, png []byte) (string, error)

	// CaptionImage describes an extracted image for use as alt text.
	CaptionImage(ctx context.Context, png []byte) (string, error)
}

// OpenAIClient implements Client on the official OpenAI SDK.
type OpenAIClient struct {
	api        openai.Client
	model      string
	maxRetries uint
	retryDelay time.Duration
}

// NewOpenAIClient builds a client from config, filling defaults for any
// zero field. The SDK's internal retries are disabled; backoff is handled
// here so transcribe and caption share one retry policy.
func NewOpenAIClient(cfg types.VisionConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama accepts any bearer token but the header must be present.
		apiKey = "ollama"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &OpenAIClient{
		api: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
			option.WithMaxRetries(0),
		),
		model:      cfg.Model,
		maxRetries: uint(maxRetries),
		retryDelay: defaultRetryDelay,
	}
}

// TranscribePage sends the page raster with the transcription prompt and
// returns sanitized Markdown.
func (c *OpenAIClient) TranscribePage(ctx context.Context, png []byte) (string, error) {
	out, err := c.chat(ctx, transcribePrompt, png)
	if err != nil {
		return "", &types.RemoteError{Op: "transcribe", Err: err}
	}
	return CleanTranscript(out), nil
}

// CaptionImage sends an extracted image with the captioning prompt.
func (c *OpenAIClient) CaptionImage(ctx context.Context, png []byte) (string, error) {
	out, err := c.chat(ctx, captionPrompt, png)
	if err != nil {
		return "", &types.RemoteError{Op: "caption", Err: err}
	}
	return strings.TrimSpace(out), nil
}

// chat performs one prompt+image completion with exponential backoff.
func (c *OpenAIClient) chat(ctx context.Context, prompt string, image []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}

	var content string
	err := retry.Do(
		func() error {
			resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model:    openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("model %s returned no choices", c.model)
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}
