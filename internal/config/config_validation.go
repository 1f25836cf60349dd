// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package config

import (
	"errors"
	"fmt"
)

// validate checks the merged configuration for contradictions the rest of
// the application should never have to handle.
func (c *StructuredConfig) validate() error {
	var errs error

	switch c.Vault.Backend {
	case "file", "sqlite":
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown vault backend %q (want file or sqlite)", c.Vault.Backend))
	}

	if c.Server.HTTPAddress == "" {
		errs = errors.Join(errs, errors.New("server address must not be empty"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = errors.Join(errs, errors.New("request timeout must be positive"))
	}

	if len(c.Networks) == 0 {
		errs = errors.Join(errs, errors.New("at least one network must be configured"))
	}

	seen := make(map[string]bool, len(c.Networks))
	for _, n := range c.Networks {
		if n.Name == "" {
			errs = errors.Join(errs, errors.New("network name must not be empty"))
			continue
		}
		if seen[n.Name] {
			errs = errors.Join(errs, fmt.Errorf("duplicate network %q", n.Name))
		}
		seen[n.Name] = true

		if n.ChainID <= 0 {
			errs = errors.Join(errs, fmt.Errorf("network %q: chain id must be positive", n.Name))
		}
		if len(n.Endpoints) == 0 {
			errs = errors.Join(errs, fmt.Errorf("network %q: at least one endpoint required", n.Name))
		}
	}

	if errs != nil {
		return fmt.Errorf("invalid configuration: %w", errs)
	}
	return nil
}
