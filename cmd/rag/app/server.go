// Package app provides the NarcoNet RAG server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/timooo-thy/rag-atron-mllm/cmd/rag/app/options"
	"github.com/timooo-thy/rag-atron-mllm/pkg/infra/app"
)

const (
	// Name is the name of the application.
	Name = "narconet-rag"

	// commandDesc is the description of the command.
	commandDesc = `NarcoNet RAG Service

The retrieval-augmented chat service for narcotics intelligence analysis.

This server provides:
  - Case-scoped evidence ingestion (text and image) with vector embeddings
  - Retrieval-augmented question answering streamed over SSE
  - Multimodal queries: image lookup and captioning, audio transcription,
    and relayed video analysis`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or
// SIGTERM. A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
