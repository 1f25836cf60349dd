// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package server exposes the dispatcher over a local HTTP surface:
// the declarative operation endpoint, the vault session lifecycle, and
// health. The server binds to loopback by default; it is the process
// boundary of the signing oracle, not a public API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elanchou/falconvault/internal/dispatcher"
	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/internal/vault"
	"github.com/elanchou/falconvault/models"
)

// maxImportSize bounds the backup body accepted on import.
const maxImportSize = 16 << 20

// Handler owns the HTTP route tree over the dispatcher and the session.
type Handler struct {
	dispatcher *dispatcher.Dispatcher
	session    *vault.Session
	log        *logger.Logger
}

// NewHandler constructs a Handler.
func NewHandler(d *dispatcher.Dispatcher, session *vault.Session, log *logger.Logger) *Handler {
	return &Handler{dispatcher: d, session: session, log: log}
}

// Init builds the chi router.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withRequestLogger)
	router.Use(h.withLogging)

	router.Post("/api/rpc", h.rpc)
	router.Get("/api/health", h.health)

	router.Route("/api/vault", func(r chi.Router) {
		r.Get("/status", h.vaultStatus)
		r.Post("/create", h.vaultCreate)
		r.Post("/unlock", h.vaultUnlock)
		r.Post("/lock", h.vaultLock)
		r.Post("/password", h.vaultChangePassword)
		r.Get("/export", h.vaultExport)
		r.Post("/import", h.vaultImport)
	})

	return router
}

// rpc decodes one declarative request and hands it to the dispatcher.
// The dispatcher encodes its own failures, so the HTTP status is 200 for
// anything that parsed; only a malformed body is a 400.
func (h *Handler) rpc(w http.ResponseWriter, r *http.Request) {
	var req models.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			models.ErrorResponse("", models.CodeValidationError, "request body is not valid JSON"))
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── vault session lifecycle ──────────────────────────────────────────────

type passwordBody struct {
	Password string `json:"password"`
}

type changePasswordBody struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) vaultStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"initialized": h.session.HasVault(r.Context()),
		"locked":      h.session.IsLocked(),
	})
}

func (h *Handler) vaultCreate(w http.ResponseWriter, r *http.Request) {
	var body passwordBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeVaultError(w, errors.New("request body is not valid JSON"))
		return
	}

	if err := h.session.Create(r.Context(), body.Password); err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// vaultUnlock reports failure without distinguishing a wrong password
// from an absent vault.
func (h *Handler) vaultUnlock(w http.ResponseWriter, r *http.Request) {
	var body passwordBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeVaultError(w, errors.New("request body is not valid JSON"))
		return
	}

	if !h.session.Unlock(r.Context(), body.Password) {
		writeJSON(w, http.StatusUnauthorized,
			models.ErrorResponse("", models.CodeExecutionError, "unable to unlock vault"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) vaultLock(w http.ResponseWriter, r *http.Request) {
	h.session.Lock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) vaultChangePassword(w http.ResponseWriter, r *http.Request) {
	var body changePasswordBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeVaultError(w, errors.New("request body is not valid JSON"))
		return
	}

	if err := h.session.ChangePassword(r.Context(), body.OldPassword, body.NewPassword); err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) vaultExport(w http.ResponseWriter, r *http.Request) {
	backup, err := h.session.ExportVaultData()
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backup)
}

// vaultImport accepts a backup document as the request body and merges it
// into the unlocked vault.
func (h *Handler) vaultImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeVaultError(w, errors.New("read request body"))
		return
	}

	added, err := h.session.ImportVaultData(r.Context(), raw)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "added": added})
}

// writeVaultError maps session failures onto HTTP statuses and the same
// coarse codes the dispatcher uses.
func writeVaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrVaultExists):
		writeJSON(w, http.StatusConflict,
			models.ErrorResponse("", models.CodeValidationError, err.Error()))
	case errors.Is(err, vault.ErrVaultLocked):
		writeJSON(w, http.StatusForbidden,
			models.ErrorResponse("", models.CodeVaultLocked, "vault is locked"))
	default:
		writeJSON(w, http.StatusBadRequest,
			models.ErrorResponse("", models.CodeValidationError, err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
