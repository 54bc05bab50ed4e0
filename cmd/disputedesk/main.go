package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/config"
	"github.com/csheth/disputedesk/internal/logger"
	"github.com/csheth/disputedesk/internal/tui"
)

type options struct {
	configPath  string
	noAltScreen bool
	list        bool
	filter      string
	draftID     string
	messageFile string
	submit      bool
	history     bool
}

func main() {
	var opts options
	var cfgFlags config.Config
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&cfgFlags.Source, "source", "", "dispute source: demo, file or http")
	flag.StringVar(&cfgFlags.DisputesFile, "disputes", "", "JSON file of disputes for -source file")
	flag.StringVar(&cfgFlags.APIBaseURL, "api", "", "dispute API base URL (eg. http://localhost:8089)")
	flag.StringVar(&cfgFlags.Generator, "generator", "", "response generator: template, ollama or openai")
	flag.StringVar(&cfgFlags.LLMModel, "llm-model", "", "override the default model (ministral-3:latest for Ollama)")
	flag.StringVar(&cfgFlags.LLMEndpoint, "llm-endpoint", "", "custom LLM host (eg. http://localhost:11434)")
	flag.StringVar(&cfgFlags.Sink, "sink", "", "where responses go: log or http")
	flag.StringVar(&cfgFlags.StoreName, "store-name", "", "store name used to sign responses")
	flag.StringVar(&cfgFlags.EvidenceDir, "evidence-dir", "", "directory that file evidence references may be read from")
	flag.StringVar(&cfgFlags.JournalFile, "journal", "", "append every submitted response to this JSON file")
	flag.StringVar(&cfgFlags.LogFile, "log-file", "", "write JSON logs to this file")
	flag.StringVar(&cfgFlags.LogLevel, "log-level", "", "debug, info, warn or error")
	flag.DurationVar(&cfgFlags.DemoLatency, "demo-latency", 0, "simulated latency for the demo source")
	flag.BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	flag.BoolVar(&opts.list, "list", false, "print the dispute list and exit")
	flag.StringVar(&opts.filter, "filter", "", "with -list, only print disputes matching this query")
	flag.StringVar(&opts.draftID, "draft", "", "print a suggested response for this dispute id and exit")
	flag.StringVar(&opts.messageFile, "message", "", "with -draft, replace the suggestion with this file's text")
	flag.BoolVar(&opts.submit, "submit", false, "with -draft, submit the response")
	flag.BoolVar(&opts.history, "history", false, "print the response journal and exit (-filter limits it to one dispute id)")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(&cfg, cfgFlags)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// applyFlags copies the flags the user actually set over the loaded configuration.
func applyFlags(cfg *config.Config, f config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "source":
			cfg.Source = f.Source
		case "disputes":
			cfg.DisputesFile = f.DisputesFile
			if cfg.Source == config.SourceDemo && !flagSet("source") {
				cfg.Source = config.SourceFile
			}
		case "api":
			cfg.APIBaseURL = f.APIBaseURL
		case "generator":
			cfg.Generator = f.Generator
		case "llm-model":
			cfg.LLMModel = f.LLMModel
		case "llm-endpoint":
			cfg.LLMEndpoint = f.LLMEndpoint
		case "sink":
			cfg.Sink = f.Sink
		case "store-name":
			cfg.StoreName = f.StoreName
		case "evidence-dir":
			cfg.EvidenceDir = f.EvidenceDir
		case "journal":
			cfg.JournalFile = f.JournalFile
		case "log-file":
			cfg.LogFile = f.LogFile
		case "log-level":
			cfg.LogLevel = f.LogLevel
		case "demo-latency":
			cfg.DemoLatency = f.DemoLatency
		}
	})
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

func run(cfg config.Config, opts options) error {
	if opts.history {
		return runHistory(cfg.JournalFile, opts.filter, os.Stdout)
	}
	headless := opts.list || opts.draftID != ""

	log, closeLog, err := openLogger(cfg, headless)
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl, err := buildController(cfg, log)
	if err != nil {
		return err
	}

	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if opts.list {
			return runList(ctx, ctrl, opts.filter, os.Stdout)
		}
		return runDraft(ctx, ctrl, opts, os.Stdout)
	}

	programOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller: ctrl,
			Logger:     log,
			Now:        time.Now,
		}),
		programOpts...,
	)
	log.Info().Str("source", cfg.Source).Str("generator", ctrl.GeneratorName()).Str("sink", cfg.Sink).Msg("starting")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// openLogger picks the log destination. The TUI owns the terminal, so it only logs to a
// file; headless runs log human-readable lines to stderr unless a file is configured.
func openLogger(cfg config.Config, headless bool) (zerolog.Logger, func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
		}
		return logger.New(f, cfg.LogLevel), func() { _ = f.Close() }, nil
	}
	if headless {
		return logger.Console(os.Stderr, cfg.LogLevel), func() {}, nil
	}
	return logger.New(io.Discard, cfg.LogLevel), func() {}, nil
}
