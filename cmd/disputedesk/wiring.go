package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/config"
	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
	"github.com/csheth/disputedesk/internal/evidence"
	"github.com/csheth/disputedesk/internal/gateway"
	"github.com/csheth/disputedesk/internal/journal"
	"github.com/csheth/disputedesk/internal/llm"
)

// buildController turns the configuration into a controller with its source, generator and
// sink. The HTTP gateway is shared when both the source and the sink use the API.
func buildController(cfg config.Config, log zerolog.Logger) (*desk.Controller, error) {
	var api *gateway.Client
	apiClient := func() (*gateway.Client, error) {
		if api != nil {
			return api, nil
		}
		c, err := gateway.New(gateway.Config{BaseURL: cfg.APIBaseURL, Token: cfg.APIToken, Logger: log})
		if err != nil {
			return nil, err
		}
		api = c
		return api, nil
	}

	var source dispute.Source
	switch cfg.Source {
	case config.SourceFile:
		source = dispute.FileSource{Path: cfg.DisputesFile}
	case config.SourceHTTP:
		c, err := apiClient()
		if err != nil {
			return nil, err
		}
		source = c
	default:
		source = dispute.SampleSource{Latency: cfg.DemoLatency}
	}

	dr := drafter.New(cfg.StoreName)
	var generator desk.Generator = drafter.Template{Drafter: dr}
	switch cfg.Generator {
	case config.GeneratorOllama, config.GeneratorOpenAI:
		docs, err := evidence.New(evidence.Options{
			CacheDir: cfg.EvidenceCacheDir,
			LocalDir: cfg.EvidenceDir,
			Logger:   log,
		})
		if err != nil {
			return nil, fmt.Errorf("evidence loader: %w", err)
		}
		client, err := llm.NewFromEnv(llm.Config{
			Provider:  cfg.Generator,
			Model:     cfg.LLMModel,
			Endpoint:  cfg.LLMEndpoint,
			StoreName: cfg.StoreName,
			Evidence:  docs,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		generator = client
	}

	var sink desk.Sink = desk.LogSink{Log: log}
	if cfg.Sink == config.SinkHTTP {
		c, err := apiClient()
		if err != nil {
			return nil, err
		}
		sink = c
	}
	if cfg.JournalFile != "" {
		sink = &journal.Sink{Next: sink, Path: cfg.JournalFile, Log: log}
	}

	return desk.New(desk.Options{
		Store:     dispute.NewStore(source, log),
		Generator: generator,
		Sink:      sink,
		Drafter:   dr,
		Logger:    log,
	}), nil
}
