// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package config

import "time"

// StructuredConfig is the top-level configuration container for
// falconvault. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string.
	App App `envPrefix:"APP_" json:"app"`

	// Vault holds persistence settings for the encrypted key store.
	Vault Vault `envPrefix:"VAULT_" json:"vault"`

	// Server holds the local HTTP surface settings.
	Server Server `envPrefix:"SERVER_" json:"server"`

	// Networks lists the configured chains with their ordered RPC
	// endpoint lists. Populated from the JSON file (or defaults); there
	// is no sane env encoding for it.
	Networks []Network `json:"networks"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config
	// flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION" json:"version"`
}

// Vault holds persistence settings for the encrypted key store.
type Vault struct {
	// StorePath is the path of the persisted vault unit: a JSON file for
	// the file backend, a sqlite database file for the sqlite backend.
	// Env: VAULT_STORE_PATH
	StorePath string `env:"STORE_PATH" json:"storePath"`

	// Backend selects the storage backend: "file" or "sqlite".
	// Env: VAULT_BACKEND
	Backend string `env:"BACKEND" json:"backend"`

	// AutoLockPoll is how often the inactivity worker checks whether the
	// auto-lock window has expired.
	// Env: VAULT_AUTO_LOCK_POLL
	AutoLockPoll time.Duration `env:"AUTO_LOCK_POLL" json:"autoLockPoll"`
}

// Server holds the local HTTP surface settings.
type Server struct {
	// HTTPAddress is the TCP address the dispatcher endpoint listens on,
	// in "host:port" format. Loopback by default: the oracle is a local
	// service, not a public one.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS" json:"httpAddress"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" json:"requestTimeout"`
}

// Network describes one logical chain: its EIP-155 chain ID and the
// ordered RPC endpoint list the access layer fails over across.
type Network struct {
	Name      string   `json:"name"`
	ChainID   int64    `json:"chainId"`
	Endpoints []string `json:"endpoints"`
	Tokens    []Token  `json:"tokens,omitempty"`
}

// Token describes one ERC-20 token tracked in balance lookups.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// defaultConfig supplies the values used when neither env, flags, nor the
// JSON file set a field.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{Version: "dev"},
		Vault: Vault{
			StorePath:    "falconvault.json",
			Backend:      "file",
			AutoLockPoll: 30 * time.Second,
		},
		Server: Server{
			HTTPAddress:    "127.0.0.1:8537",
			RequestTimeout: 30 * time.Second,
		},
		Networks: []Network{
			{
				Name:    "mainnet",
				ChainID: 1,
				Endpoints: []string{
					"https://eth.llamarpc.com",
					"https://rpc.ankr.com/eth",
					"https://cloudflare-eth.com",
				},
			},
		},
	}
}
