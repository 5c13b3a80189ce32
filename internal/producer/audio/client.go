// Package audio implements the Lyria RealTime music producer.
//
// A job opens one websocket session, sends the model setup, a weighted prompt,
// the generation config, and PLAY, then accumulates base64 PCM chunks until
// the requested duration is covered. The PCM is trimmed to the exact length and
// returned as a WAV file.
package audio

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/gobwas/ws"

	"assetgen/internal/logging"
	"assetgen/internal/producer"
)

const (
	kind               = "audio"
	defaultTemperature = 1.0
	minBPM             = 60
	maxBPM             = 200
	maxTemperature     = 3.0
	// maxDurationSeconds keeps a single job's buffer bounded.
	maxDurationSeconds = 600
)

// Config captures connection and PCM settings.
type Config struct {
	APIKey         string
	URL            string
	Model          string
	SampleRate     int
	Channels       int
	SampleWidth    int
	TimeoutSeconds int
}

// Producer streams music from the realtime endpoint.
type Producer struct {
	cfg    Config
	format Format
	dialer ws.Dialer
	logger *slog.Logger
}

// Option customizes the producer.
type Option func(*Producer)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logging.NewComponentLogger(logger, "audio")
		}
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(dialer ws.Dialer) Option {
	return func(p *Producer) {
		p.dialer = dialer
	}
}

// New constructs an audio producer.
func New(cfg Config, opts ...Option) *Producer {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	p := &Producer{
		cfg: cfg,
		format: Format{
			SampleRate:  cfg.SampleRate,
			Channels:    cfg.Channels,
			SampleWidth: cfg.SampleWidth,
		},
		dialer: ws.Dialer{Timeout: 30 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns the PCM layout of produced files.
func (p *Producer) Format() Format {
	return p.format
}

// Validate reports missing credentials or an unusable PCM layout.
func (p *Producer) Validate() error {
	if p.cfg.APIKey == "" {
		return producer.Wrap(producer.ErrConfiguration, kind, "validate", "google api key is required", nil)
	}
	if p.cfg.URL == "" || p.cfg.Model == "" {
		return producer.Wrap(producer.ErrConfiguration, kind, "validate", "endpoint url and model are required", nil)
	}
	if err := p.format.validate(); err != nil {
		return producer.Wrap(producer.ErrConfiguration, kind, "validate", "", err)
	}
	return nil
}

type request struct {
	prompt   string
	weight   float64
	duration float64
	config   musicGenerationConfig
}

// Produce generates one track. Recognised parameters: prompt and duration
// (seconds) are required; bpm, temperature, guidance, density, brightness,
// and weight are optional.
func (p *Producer) Produce(ctx context.Context, params producer.Parameters) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	req, err := parseRequest(params)
	if err != nil {
		return nil, err
	}
	if p.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	target := p.format.TargetBytes(req.duration)
	logger := logging.WithContext(ctx, p.logger)
	logger.Debug("connecting to music stream",
		logging.String("model", p.cfg.Model),
		logging.Float64("duration_seconds", req.duration),
		logging.Int("target_bytes", target))

	sess, err := dialSession(ctx, p.dialer, p.cfg.URL, p.cfg.APIKey)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	if err := sess.send(clientMessage{Setup: &setupMessage{Model: p.cfg.Model}}); err != nil {
		return nil, classify(ctx, "setup", err)
	}
	if err := sess.awaitSetup(ctx); err != nil {
		return nil, err
	}
	for _, msg := range []clientMessage{
		{ClientContent: &clientContent{WeightedPrompts: []weightedPrompt{{Text: req.prompt, Weight: req.weight}}}},
		{MusicGenerationConfig: &req.config},
		{PlaybackControl: "PLAY"},
	} {
		if err := sess.send(msg); err != nil {
			return nil, classify(ctx, "configure", err)
		}
	}

	pcm, err := collect(sess.chunks(ctx), target, func(done int) {
		logger.Debug("streaming audio",
			logging.Int("received_bytes", done),
			logging.Int("target_bytes", target))
	})
	if err != nil {
		return nil, err
	}
	return EncodeWAV(pcm, p.format)
}

func parseRequest(params producer.Parameters) (request, error) {
	req := request{weight: 1.0}
	prompt, ok := params.String("prompt")
	if !ok {
		return req, producer.Wrap(producer.ErrInvalidParameters, kind, "parameters", "prompt is required", nil)
	}
	req.prompt = prompt

	duration, ok, err := params.Float("duration")
	if err != nil {
		return req, err
	}
	if !ok || duration <= 0 || duration > maxDurationSeconds {
		return req, producer.Wrap(producer.ErrInvalidParameters, kind, "parameters",
			fmt.Sprintf("duration must be between 0 and %d seconds", maxDurationSeconds), nil)
	}
	req.duration = duration

	bpm, ok, err := params.Int("bpm")
	if err != nil {
		return req, err
	}
	if ok {
		if bpm < minBPM || bpm > maxBPM {
			return req, producer.Wrap(producer.ErrInvalidParameters, kind, "parameters",
				fmt.Sprintf("bpm %d outside %d-%d", bpm, minBPM, maxBPM), nil)
		}
		req.config.BPM = bpm
	}

	temperature := defaultTemperature
	if value, ok, err := params.Float("temperature"); err != nil {
		return req, err
	} else if ok {
		if value < 0 || value > maxTemperature {
			return req, producer.Wrap(producer.ErrInvalidParameters, kind, "parameters",
				fmt.Sprintf("temperature %.2f outside 0-%.1f", value, maxTemperature), nil)
		}
		temperature = value
	}
	req.config.Temperature = &temperature

	for key, dst := range map[string]**float64{
		"guidance":   &req.config.Guidance,
		"density":    &req.config.Density,
		"brightness": &req.config.Brightness,
	} {
		value, ok, err := params.Float(key)
		if err != nil {
			return req, err
		}
		if ok {
			*dst = &value
		}
	}

	if weight, ok, err := params.Float("weight"); err != nil {
		return req, err
	} else if ok && weight > 0 {
		req.weight = weight
	}
	return req, nil
}

// collect drains chunks until target bytes arrived and returns exactly target
// bytes. progress is called when the received fraction crosses a 25% bucket.
func collect(chunks iter.Seq2[[]byte, error], target int, progress func(done int)) ([]byte, error) {
	if target <= 0 {
		return nil, producer.Wrap(producer.ErrInvalidParameters, kind, "stream", "target length is zero", nil)
	}
	sampler := logging.NewProgressSampler(25)
	buf := make([]byte, 0, target)
	var streamErr error
	for chunk, err := range chunks {
		if err != nil {
			streamErr = err
			break
		}
		buf = append(buf, chunk...)
		if progress != nil && sampler.ShouldLog(int64(len(buf)), int64(target)) {
			progress(len(buf))
		}
		if len(buf) >= target {
			break
		}
	}
	if len(buf) >= target {
		return buf[:target], nil
	}
	if streamErr != nil {
		return nil, fmt.Errorf("received %d of %d bytes: %w", len(buf), target, streamErr)
	}
	return nil, producer.Wrap(producer.ErrShortOutput, kind, "stream", fmt.Sprintf("received %d of %d bytes", len(buf), target), nil)
}
