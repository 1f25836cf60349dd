// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package config assembles the falconvault configuration from environment
// variables, command-line flags, an optional JSON file, and built-in
// defaults, merged in that priority order. The merged result carries the
// vault persistence settings, the local server surface, and the
// per-network RPC endpoint lists the chain layer fails over across.
package config
