// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package dispatcher routes declarative operation requests to the vault,
// chain, and signing layers. The operation names are a fixed wire
// contract; adding an operation means extending the switch, never
// renaming an existing entry.
package dispatcher

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elanchou/falconvault/internal/chain"
	"github.com/elanchou/falconvault/internal/crypto"
	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/internal/signer"
	"github.com/elanchou/falconvault/internal/vault"
	"github.com/elanchou/falconvault/models"
)

// defaultNetwork is used when a chain request names no network.
const defaultNetwork = "mainnet"

// Dispatcher maps request types onto the three operation classes:
// vault management (never decrypts), read-only chain queries, and signing
// operations (decrypt through the session, then sign).
type Dispatcher struct {
	session *vault.Session
	chain   *chain.Client
	signer  signer.Service
	log     *logger.Logger
}

// New constructs a Dispatcher.
func New(session *vault.Session, chainClient *chain.Client, signerSvc signer.Service, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		session: session,
		chain:   chainClient,
		signer:  signerSvc,
		log:     log,
	}
}

// walletSummary is the display form of a wallet record: everything except
// the encrypted key material.
type walletSummary struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Address   string            `json:"address"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Dispatch executes one declarative request and always returns a
// response object; failures are encoded, not raised.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.Request) models.Response {
	d.session.Touch()

	var (
		resp models.Response
		err  error
	)

	switch req.Type {
	case models.OpListWallets:
		resp, err = d.listWallets()
	case models.OpGetAddress:
		resp, err = d.getAddress(req)
	case models.OpImportPrivateKey:
		resp, err = d.importPrivateKey(ctx, req)
	case models.OpGetBalance:
		resp, err = d.getBalance(ctx, req)
	case models.OpCall:
		resp, err = d.ethCall(ctx, req)
	case models.OpEstimateGas:
		resp, err = d.estimateGas(ctx, req)
	case models.OpSendRawTransaction:
		resp, err = d.sendRawTransaction(ctx, req)
	case models.OpSignTransaction:
		resp, err = d.signTransaction(req)
	case models.OpPersonalSign:
		resp, err = d.personalSign(req)
	case models.OpSignTypedData:
		resp, err = d.signTypedData(req)
	default:
		return models.ErrorResponse(req.Type, models.CodeValidationError,
			fmt.Sprintf("unknown operation type %q", req.Type))
	}

	if err != nil {
		d.log.Debug().Str("operation", req.Type).Err(err).Msg("dispatch failed")
		return d.mapError(req.Type, err)
	}
	return resp
}

// ── vault management ─────────────────────────────────────────────────────

func (d *Dispatcher) listWallets() (models.Response, error) {
	wallets, err := d.session.ListWallets()
	if err != nil {
		return nil, err
	}

	summaries := make([]walletSummary, 0, len(wallets))
	for _, w := range wallets {
		summaries = append(summaries, walletSummary{
			ID:        w.ID,
			Label:     w.Label,
			Address:   w.Address,
			Metadata:  w.Metadata,
			CreatedAt: w.CreatedAt,
		})
	}

	return models.SuccessResponse(models.OpListWallets).With("wallets", summaries), nil
}

func (d *Dispatcher) getAddress(req models.Request) (models.Response, error) {
	if req.WalletLabel == "" {
		return nil, vault.ErrWalletNotFound
	}

	address, err := d.session.GetAddress(req.WalletLabel)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpGetAddress).With("address", address), nil
}

type importPayload struct {
	Label      string            `json:"label"`
	PrivateKey string            `json:"privateKey"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (d *Dispatcher) importPrivateKey(ctx context.Context, req models.Request) (models.Response, error) {
	var payload importPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode import payload: %w", err)
	}

	record, err := d.session.AddWallet(ctx, payload.Label, payload.PrivateKey, payload.Metadata)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpImportPrivateKey).
		With("id", record.ID).
		With("label", record.Label).
		With("address", record.Address), nil
}

// ── read-only chain queries ──────────────────────────────────────────────

type addressPayload struct {
	Address string `json:"address"`
}

func (d *Dispatcher) getBalance(ctx context.Context, req models.Request) (models.Response, error) {
	var payload addressPayload
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode balance payload: %w", err)
		}
	}
	// Legacy callers put the address at the top level of the request.
	address := payload.Address
	if address == "" {
		address = req.Address
	}
	if address == "" {
		return nil, errValidation("address is required")
	}

	network := networkOrDefault(req.Network)
	balance, err := d.chain.GetBalance(ctx, network, address)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpGetBalance).
		With("network", network).
		With("address", address).
		With("balanceWei", balance.String()).
		With("balance", chain.FormatAmount(balance, 18)), nil
}

func (d *Dispatcher) ethCall(ctx context.Context, req models.Request) (models.Response, error) {
	callObject, err := decodeCallObject(req.Payload)
	if err != nil {
		return nil, err
	}

	result, err := d.chain.Call(ctx, networkOrDefault(req.Network), callObject)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpCall).With("result", result), nil
}

func (d *Dispatcher) estimateGas(ctx context.Context, req models.Request) (models.Response, error) {
	callObject, err := decodeCallObject(req.Payload)
	if err != nil {
		return nil, err
	}

	gas, err := d.chain.EstimateGas(ctx, networkOrDefault(req.Network), callObject)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpEstimateGas).With("gas", gas), nil
}

type rawTxPayload struct {
	Raw string `json:"raw"`
}

func (d *Dispatcher) sendRawTransaction(ctx context.Context, req models.Request) (models.Response, error) {
	var payload rawTxPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode raw transaction payload: %w", err)
	}
	if payload.Raw == "" {
		return nil, errValidation("raw is required")
	}

	hash, err := d.chain.Broadcast(ctx, networkOrDefault(req.Network), payload.Raw)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpSendRawTransaction).With("hash", hash), nil
}

// ── signing operations ───────────────────────────────────────────────────

// resolveKey turns a wallet label into a parsed signing key. Label
// resolution happens before any decryption so an unknown label never
// triggers a decrypt.
func (d *Dispatcher) resolveKey(label string) (*signingKey, error) {
	if label == "" {
		return nil, errValidation("walletLabel is required for signing operations")
	}

	keyBytes, err := d.session.DecryptKey(label)
	if err != nil {
		return nil, err
	}

	key, err := signer.ParsePrivateKey(string(keyBytes))
	if err != nil {
		return nil, err
	}
	return &signingKey{key: key}, nil
}

func (d *Dispatcher) signTransaction(req models.Request) (models.Response, error) {
	sk, err := d.resolveKey(req.WalletLabel)
	if err != nil {
		return nil, err
	}

	var tx models.TxRequest
	if err = json.Unmarshal(req.Payload, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction payload: %w", err)
	}

	signed, err := d.signer.SignTransaction(sk.key, tx)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpSignTransaction).
		With("raw", signed.Raw).
		With("hash", signed.Hash), nil
}

type messagePayload struct {
	Message string `json:"message"`
}

func (d *Dispatcher) personalSign(req models.Request) (models.Response, error) {
	sk, err := d.resolveKey(req.WalletLabel)
	if err != nil {
		return nil, err
	}

	var payload messagePayload
	if err = json.Unmarshal(req.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode message payload: %w", err)
	}

	signature, err := d.signer.SignMessage(sk.key, payload.Message)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpPersonalSign).With("signature", signature), nil
}

func (d *Dispatcher) signTypedData(req models.Request) (models.Response, error) {
	sk, err := d.resolveKey(req.WalletLabel)
	if err != nil {
		return nil, err
	}

	signature, err := d.signer.SignTypedData(sk.key, req.Payload)
	if err != nil {
		return nil, err
	}

	return models.SuccessResponse(models.OpSignTypedData).With("signature", signature), nil
}

// ── helpers ──────────────────────────────────────────────────────────────

func networkOrDefault(network string) string {
	if network == "" {
		return defaultNetwork
	}
	return network
}

func decodeCallObject(payload json.RawMessage) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, errValidation("payload is required")
	}
	var callObject map[string]any
	if err := json.Unmarshal(payload, &callObject); err != nil {
		return nil, fmt.Errorf("decode call object: %w", err)
	}
	return callObject, nil
}

// mapError folds internal failures into the coarse external taxonomy.
func (d *Dispatcher) mapError(operation string, err error) models.Response {
	switch {
	case vault.IsValidationError(err) || signer.IsValidationError(err) || isValidation(err):
		return models.ErrorResponse(operation, models.CodeValidationError, err.Error())
	case errors.Is(err, vault.ErrVaultLocked):
		return models.ErrorResponse(operation, models.CodeVaultLocked, "vault is locked")
	case errors.Is(err, vault.ErrWalletNotFound):
		return models.ErrorResponse(operation, models.CodeValidationError, err.Error())
	case errors.Is(err, crypto.ErrDecryptionFailed):
		// Wrong password and corrupted blob are deliberately the same
		// message.
		return models.ErrorResponse(operation, models.CodeExecutionError, "decryption failed")
	case errors.Is(err, chain.ErrUnknownNetwork):
		return models.ErrorResponse(operation, models.CodeNetworkError, err.Error())
	case isChainOp(operation):
		return models.ErrorResponse(operation, models.CodeNetworkError, err.Error())
	default:
		return models.ErrorResponse(operation, models.CodeExecutionError, err.Error())
	}
}

func isChainOp(operation string) bool {
	switch operation {
	case models.OpGetBalance, models.OpCall, models.OpEstimateGas, models.OpSendRawTransaction:
		return true
	}
	return false
}

// signingKey wraps the parsed key so the plaintext never travels through
// more layers than the dispatch that needed it.
type signingKey struct {
	key *ecdsa.PrivateKey
}

// validationError is the dispatcher's own bad-request failure.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func errValidation(msg string) error { return &validationError{msg: msg} }

func isValidation(err error) bool {
	var ve *validationError
	return errors.As(err, &ve)
}
