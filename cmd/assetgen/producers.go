package main

import (
	"fmt"
	"log/slog"

	"assetgen/internal/config"
	"assetgen/internal/producer"
	"assetgen/internal/producer/audio"
	"assetgen/internal/producer/image"
)

const (
	imageExtension    = ".png"
	imageDefaultClass = "1024x1024/standard"
	audioExtension    = ".wav"
	audioDefaultClass = "lyria/realtime"
)

// newProducerRegistry is swapped by tests to run catalogs against fakes.
var newProducerRegistry = buildProducerRegistry

func buildProducerRegistry(cfg *config.Config, logger *slog.Logger) (*producer.Registry, error) {
	registry := producer.NewRegistry()

	images := image.New(image.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	}, image.WithLogger(logger))
	if err := registry.Register(producer.Binding{
		Kind:         producer.KindImage,
		Producer:     images,
		Extension:    imageExtension,
		DefaultClass: imageDefaultClass,
		Classify:     image.Classify,
	}); err != nil {
		return nil, fmt.Errorf("register image producer: %w", err)
	}

	music := audio.New(audio.Config{
		APIKey:         cfg.Lyria.APIKey,
		URL:            cfg.Lyria.URL,
		Model:          cfg.Lyria.Model,
		SampleRate:     cfg.Lyria.SampleRate,
		Channels:       cfg.Lyria.Channels,
		SampleWidth:    cfg.Lyria.SampleWidth,
		TimeoutSeconds: cfg.Lyria.TimeoutSeconds,
	}, audio.WithLogger(logger))
	if err := registry.Register(producer.Binding{
		Kind:         producer.KindAudio,
		Producer:     music,
		Extension:    audioExtension,
		DefaultClass: audioDefaultClass,
	}); err != nil {
		return nil, fmt.Errorf("register audio producer: %w", err)
	}

	return registry, nil
}
