// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON loads a StructuredConfig from the JSON file at path.
func parseJSON(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &StructuredConfig{}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	return cfg, nil
}
