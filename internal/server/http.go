// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/elanchou/falconvault/internal/config"
	"github.com/elanchou/falconvault/internal/logger"
)

// HTTPServer wraps the stdlib server with run/shutdown plumbing.
type HTTPServer struct {
	server *http.Server
	log    *logger.Logger
}

// NewHTTPServer builds the server from config and the handler's router.
func NewHTTPServer(cfg config.Server, handler *Handler, log *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:         cfg.HTTPAddress,
			Handler:      handler.Init(),
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
		},
		log: log,
	}
}

// Run serves until the listener closes. http.ErrServerClosed is the
// normal shutdown signal and is not reported as a failure.
func (h *HTTPServer) Run() error {
	h.log.Info().Str("address", h.server.Addr).Msg("http server listening")
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the listener.
func (h *HTTPServer) Shutdown(ctx context.Context) {
	if err := h.server.Shutdown(ctx); err != nil {
		h.log.Err(err).Msg("http server shutdown")
	}
}
