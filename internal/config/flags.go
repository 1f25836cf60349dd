// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags reads the command line into a StructuredConfig. Unset flags
// leave their fields zero so the builder can fill them from lower-priority
// sources.
func ParseFlags() *StructuredConfig {
	fs := flag.NewFlagSet("falconvaultd", flag.ContinueOnError)

	address := fs.String("a", "", "local HTTP address (host:port)")
	storePath := fs.String("s", "", "vault store path")
	backend := fs.String("b", "", "vault storage backend: file or sqlite")
	timeout := fs.Duration("t", 0, "inbound request timeout")
	configPath := fs.String("c", "", "path to JSON config file")
	fs.StringVar(configPath, "config", *configPath, "path to JSON config file")

	// Flags are best-effort: an unknown flag falls through to defaults.
	_ = fs.Parse(os.Args[1:])

	return &StructuredConfig{
		Vault: Vault{
			StorePath: *storePath,
			Backend:   *backend,
		},
		Server: Server{
			HTTPAddress:    *address,
			RequestTimeout: durationOrZero(*timeout),
		},
		JSONFilePath: *configPath,
	}
}

func durationOrZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
