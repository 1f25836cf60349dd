// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elanchou/falconvault/internal/chain"
	"github.com/elanchou/falconvault/internal/config"
	"github.com/elanchou/falconvault/internal/crypto"
	"github.com/elanchou/falconvault/internal/dispatcher"
	"github.com/elanchou/falconvault/internal/events"
	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/internal/server"
	"github.com/elanchou/falconvault/internal/signer"
	"github.com/elanchou/falconvault/internal/vault"
	"github.com/elanchou/falconvault/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("falconvaultd")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx := context.Background()

	storage, err := newStorage(ctx, cfg.Vault, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create vault storage")
	}

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		evt := log.Info().Str("event", e.Type)
		for k, v := range e.Fields {
			evt = evt.Str(k, v)
		}
		evt.Msg(e.Message)
	})

	keychain := crypto.NewKeyChainService()
	session := vault.NewSession(storage, keychain, bus, log)
	chainClient := chain.NewClient(cfg.Networks, bus, log)
	signerSvc := signer.NewService()

	d := dispatcher.New(session, chainClient, signerSvc, log)
	handler := server.NewHandler(d, session, log)
	httpServer := server.NewHTTPServer(cfg.Server, handler, log)

	background := workers.New(
		workers.NewAutoLock(session, cfg.Vault.AutoLockPoll, log),
	)
	background.Run()

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err = <-errCh:
		if err != nil {
			log.Err(err).Msg("http server failed")
		}
	}

	background.Stop()
	session.Lock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	if closer, ok := storage.(io.Closer); ok {
		if err = closer.Close(); err != nil {
			log.Err(err).Msg("close vault storage")
		}
	}
}

func newStorage(ctx context.Context, cfg config.Vault, log *logger.Logger) (vault.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		return vault.NewSQLiteStorage(ctx, cfg.StorePath, log)
	default:
		return vault.NewFileStorage(cfg.StorePath), nil
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
