package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/dispute"
)

const (
	defaultOllamaModel = "ministral-3:latest"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOpenAIBase  = "https://api.openai.com/v1"
	// Evidence excerpts are clipped so the prompt stays small for local models.
	maxEvidenceChars  = 12_000
	maxComplaintChars = 4_000
)

const defaultLLMHTTPTimeout = 3 * time.Minute

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config describes how to build an LLM client.
type Config struct {
	Provider   string
	Model      string
	Endpoint   string
	APIKey     string
	StoreName  string
	Evidence   Evidence
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

// Client drafts dispute responses with a language model.
type Client interface {
	Generate(ctx context.Context, d dispute.Dispute) (string, error)
	Name() string
}

// Evidence supplies seller-side document text for a dispute, or "" when none is attached.
type Evidence interface {
	Excerpt(ctx context.Context, d dispute.Dispute) (string, error)
}

// NewFromEnv inspects CLI arguments & environment variables to build a client.
func NewFromEnv(cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderOllama:
		return newOllamaFromEnv(cfg), nil
	case ProviderOpenAI:
		return newOpenAIFromEnv(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func newOllamaFromEnv(cfg Config) *ollamaClient {
	host := cfg.Endpoint
	if host == "" {
		if env := os.Getenv("OLLAMA_HOST"); env != "" {
			host = env
		} else {
			host = "http://localhost:11434"
		}
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("OLLAMA_MODEL"); env != "" {
			model = env
		} else {
			model = defaultOllamaModel
		}
	}
	return &ollamaClient{
		host:    strings.TrimRight(host, "/"),
		model:   model,
		client:  pickHTTPClient(cfg.HTTPClient),
		prompts: newPromptBuilder(cfg),
	}
}

func newOpenAIFromEnv(cfg Config) (*openAIClient, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("llm: OPENAI_API_KEY is required for the openai provider")
	}
	base := cfg.Endpoint
	if base == "" {
		if env := os.Getenv("OPENAI_BASE_URL"); env != "" {
			base = env
		} else {
			base = defaultOpenAIBase
		}
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIClient{
		apiKey:  key,
		model:   model,
		base:    strings.TrimRight(base, "/"),
		client:  pickHTTPClient(cfg.HTTPClient),
		prompts: newPromptBuilder(cfg),
	}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Allow longer-running generations (Ollama often needs >60s) and rely on the caller's context for cancellation.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}
