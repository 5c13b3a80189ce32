// Package image implements the OpenAI Images producer.
//
// Each call issues one POST to {base_url}/images/generations with
// response_format=b64_json and returns the decoded image bytes. There are no
// retries: a failed call is final for the job in this run.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"assetgen/internal/logging"
	"assetgen/internal/producer"
)

const (
	kind               = "image"
	defaultHTTPTimeout = 120 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "dall-e-3"
	defaultSize        = "1024x1024"
	defaultQuality     = "standard"
	snippetLimit       = 200
)

// Config captures the runtime settings required to talk to the Images API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Producer generates images from a prompt.
type Producer struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the producer.
type Option func(*Producer)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Producer) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logging.NewComponentLogger(logger, "image")
		}
	}
}

// New constructs an image producer.
func New(cfg Config, opts ...Option) *Producer {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	p := &Producer{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.BaseURL == "" {
		p.cfg.BaseURL = defaultBaseURL
	}
	if p.cfg.Model == "" {
		p.cfg.Model = defaultModel
	}
	return p
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Validate reports a missing API key before any job runs.
func (p *Producer) Validate() error {
	if p.cfg.APIKey == "" {
		return producer.Wrap(producer.ErrConfiguration, kind, "validate", "openai api key is required", nil)
	}
	return nil
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type generationResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Produce generates one image. Recognised parameters: prompt (required),
// size, quality, style.
func (p *Producer) Produce(ctx context.Context, params producer.Parameters) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	prompt, ok := params.String("prompt")
	if !ok {
		return nil, producer.Wrap(producer.ErrInvalidParameters, kind, "generate", "prompt is required", nil)
	}
	payload := generationRequest{
		Model:          p.cfg.Model,
		Prompt:         prompt,
		N:              1,
		Size:           params.StringOr("size", defaultSize),
		Quality:        params.StringOr("quality", defaultQuality),
		ResponseFormat: "b64_json",
	}
	if style, ok := params.String("style"); ok {
		payload.Style = style
	}

	body, err := p.send(ctx, payload)
	if err != nil {
		return nil, err
	}

	var decoded generationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, producer.Wrap(producer.ErrResponse, kind, "decode", "parse response: "+producer.Snippet(string(body), snippetLimit), err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, producer.Wrap(producer.ErrResponse, kind, "decode", decoded.Error.Message, nil)
	}
	if len(decoded.Data) == 0 {
		return nil, producer.Wrap(producer.ErrResponse, kind, "decode", "response contained no images", nil)
	}
	item := decoded.Data[0]
	if strings.TrimSpace(item.B64JSON) == "" {
		if item.URL != "" {
			return nil, producer.Wrap(producer.ErrResponse, kind, "decode", "response returned a url instead of b64_json", nil)
		}
		return nil, producer.Wrap(producer.ErrResponse, kind, "decode", "response image was empty", nil)
	}
	image, err := base64.StdEncoding.DecodeString(item.B64JSON)
	if err != nil {
		return nil, producer.Wrap(producer.ErrResponse, kind, "decode", "invalid base64 payload", err)
	}
	if len(image) == 0 {
		return nil, producer.Wrap(producer.ErrShortOutput, kind, "decode", "decoded image is empty", nil)
	}

	logger := logging.WithContext(ctx, p.logger)
	if item.RevisedPrompt != "" {
		logger.Debug("provider revised prompt", logging.String("revised_prompt", producer.Snippet(item.RevisedPrompt, snippetLimit)))
	}
	logger.Debug("image decoded",
		logging.Int("bytes", len(image)),
		logging.String("size", payload.Size),
		logging.String("quality", payload.Quality))
	return image, nil
}

func (p *Producer) send(ctx context.Context, payload generationRequest) ([]byte, error) {
	endpoint, err := url.JoinPath(p.cfg.BaseURL, "images", "generations")
	if err != nil {
		return nil, producer.Wrap(producer.ErrConfiguration, kind, "request", "build url", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, producer.Wrap(producer.ErrInvalidParameters, kind, "request", "encode body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, producer.Wrap(producer.ErrConfiguration, kind, "request", "new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, producer.Wrap(producer.ErrTimeout, kind, "request", "post "+endpoint, err)
		}
		return nil, producer.Wrap(producer.ErrTransport, kind, "request", "post "+endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, producer.Wrap(producer.ErrTimeout, kind, "request", "read body", err)
		}
		return nil, producer.Wrap(producer.ErrTransport, kind, "request", "read body", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       producer.Snippet(string(body), snippetLimit),
		}
		var envelope struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			statusErr.Message = strings.TrimSpace(envelope.Error.Message)
		}
		return nil, producer.Wrap(producer.ErrResponse, kind, "request", "", statusErr)
	}
	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
