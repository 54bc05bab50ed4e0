package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/logger"
	"github.com/csheth/disputedesk/internal/stub"
)

func main() {
	addr := flag.String("addr", ":8089", "listen address")
	disputesPath := flag.String("disputes", "", "JSON file of disputes to serve (defaults to the demo disputes)")
	token := flag.String("token", os.Getenv("DISPUTEDESK_API_TOKEN"), "bearer token required on API calls")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log := logger.New(os.Stdout, *logLevel)

	disputes := dispute.SampleDisputes()
	if *disputesPath != "" {
		list, err := dispute.FileSource{Path: *disputesPath}.ListDisputes(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, "load disputes:", err)
			os.Exit(1)
		}
		disputes = list
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.New(stub.Config{Disputes: disputes, Token: *token, Logger: log}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", *addr).Int("disputes", len(disputes)).Bool("auth", *token != "").Msg("dispute API stub listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
