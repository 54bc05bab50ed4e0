package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceDemo = "demo"
	SourceFile = "file"
	SourceHTTP = "http"

	GeneratorTemplate = "template"
	GeneratorOllama   = "ollama"
	GeneratorOpenAI   = "openai"

	SinkLog  = "log"
	SinkHTTP = "http"
)

// Config is the resolved runtime configuration. Later layers win: defaults, YAML file,
// DISPUTEDESK_* environment, then command-line flags applied by the caller.
type Config struct {
	Source       string
	DisputesFile string
	DemoLatency  time.Duration

	APIBaseURL string
	APIToken   string

	Generator   string
	LLMModel    string
	LLMEndpoint string

	Sink      string
	StoreName string

	EvidenceCacheDir string
	EvidenceDir      string
	JournalFile      string

	LogFile  string
	LogLevel string
}

type configFile struct {
	Source       string        `yaml:"source"`
	DisputesFile string        `yaml:"disputes_file"`
	DemoLatency  time.Duration `yaml:"demo_latency"`
	API          struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"api"`
	Generator struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"generator"`
	Sink      string `yaml:"sink"`
	StoreName string `yaml:"store_name"`
	Evidence  struct {
		CacheDir string `yaml:"cache_dir"`
		Dir      string `yaml:"dir"`
	} `yaml:"evidence"`
	JournalFile string `yaml:"journal_file"`
	Log         struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Defaults mirror the demo experience: sample disputes after a one second delay, template
// drafts and a log-only sink.
func Defaults() Config {
	return Config{
		Source:      SourceDemo,
		DemoLatency: time.Second,
		Generator:   GeneratorTemplate,
		Sink:        SinkLog,
		LogLevel:    "info",
	}
}

// Load applies the YAML file at path (if non-empty) and the environment on top of Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	setString(&c.Source, f.Source)
	setString(&c.DisputesFile, f.DisputesFile)
	if f.DemoLatency > 0 {
		c.DemoLatency = f.DemoLatency
	}
	setString(&c.APIBaseURL, f.API.BaseURL)
	setString(&c.APIToken, f.API.Token)
	setString(&c.Generator, f.Generator.Provider)
	setString(&c.LLMModel, f.Generator.Model)
	setString(&c.LLMEndpoint, f.Generator.Endpoint)
	setString(&c.Sink, f.Sink)
	setString(&c.StoreName, f.StoreName)
	setString(&c.EvidenceCacheDir, f.Evidence.CacheDir)
	setString(&c.EvidenceDir, f.Evidence.Dir)
	setString(&c.JournalFile, f.JournalFile)
	setString(&c.LogFile, f.Log.File)
	setString(&c.LogLevel, f.Log.Level)
	return nil
}

func (c *Config) applyEnv() error {
	c.Source = envString("DISPUTEDESK_SOURCE", c.Source)
	c.DisputesFile = envString("DISPUTEDESK_DISPUTES_FILE", c.DisputesFile)
	c.APIBaseURL = envString("DISPUTEDESK_API_URL", c.APIBaseURL)
	c.APIToken = envString("DISPUTEDESK_API_TOKEN", c.APIToken)
	c.Generator = envString("DISPUTEDESK_GENERATOR", c.Generator)
	c.LLMModel = envString("DISPUTEDESK_LLM_MODEL", c.LLMModel)
	c.LLMEndpoint = envString("DISPUTEDESK_LLM_ENDPOINT", c.LLMEndpoint)
	c.Sink = envString("DISPUTEDESK_SINK", c.Sink)
	c.StoreName = envString("DISPUTEDESK_STORE_NAME", c.StoreName)
	c.EvidenceCacheDir = envString("DISPUTEDESK_CACHE_DIR", c.EvidenceCacheDir)
	c.EvidenceDir = envString("DISPUTEDESK_EVIDENCE_DIR", c.EvidenceDir)
	c.JournalFile = envString("DISPUTEDESK_JOURNAL", c.JournalFile)
	c.LogFile = envString("DISPUTEDESK_LOG_FILE", c.LogFile)
	c.LogLevel = envString("DISPUTEDESK_LOG_LEVEL", c.LogLevel)
	if raw := os.Getenv("DISPUTEDESK_DEMO_LATENCY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: DISPUTEDESK_DEMO_LATENCY: %w", err)
		}
		c.DemoLatency = d
	}
	return nil
}

// Validate checks that the chosen adapters have what they need.
func (c Config) Validate() error {
	var errs []error
	switch c.Source {
	case SourceDemo:
	case SourceFile:
		if c.DisputesFile == "" {
			errs = append(errs, errors.New("source \"file\" needs a disputes file"))
		}
	case SourceHTTP:
		if c.APIBaseURL == "" {
			errs = append(errs, errors.New("source \"http\" needs an API base URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q (want demo, file or http)", c.Source))
	}
	switch c.Generator {
	case GeneratorTemplate, GeneratorOllama, GeneratorOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown generator %q (want template, ollama or openai)", c.Generator))
	}
	switch c.Sink {
	case SinkLog:
	case SinkHTTP:
		if c.APIBaseURL == "" {
			errs = append(errs, errors.New("sink \"http\" needs an API base URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink %q (want log or http)", c.Sink))
	}
	if c.DemoLatency < 0 {
		errs = append(errs, errors.New("demo latency must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func envString(name, fallback string) string {
	if raw := os.Getenv(name); raw != "" {
		return raw
	}
	return fallback
}
