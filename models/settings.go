// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package models

// AttributeType defines how a user-defined wallet attribute is rendered
// and validated.
type AttributeType string

const (
	AttributeText   AttributeType = "text"
	AttributeSelect AttributeType = "select"
	AttributeDate   AttributeType = "date"
)

// AttributeDefinition describes one user-defined wallet metadata field.
// The definitions form a schema interpreted against WalletRecord.Metadata;
// records themselves stay a plain string map.
type AttributeDefinition struct {
	// Key is the metadata map key. Unique across the definition list.
	Key string `json:"key"`

	// Label is the display name of the attribute.
	Label string `json:"label"`

	// Type is one of text, select, or date.
	Type AttributeType `json:"type"`

	// Options lists the allowed values. Only meaningful for select.
	Options []string `json:"options,omitempty"`
}

// VaultSettings holds per-vault behavior switches. Persisted alongside the
// wallet list; fields missing from an older stored vault fall back to
// DefaultSettings values at load time.
type VaultSettings struct {
	// AutoLockMinutes is the inactivity window after which the session
	// locks itself. Zero disables the auto-lock timer.
	AutoLockMinutes int `json:"autoLockMinutes"`

	// EnableLogging gates diagnostic event emission from the vault.
	EnableLogging bool `json:"enableLogging"`

	// AttributeDefinitions is the ordered user-defined metadata schema.
	AttributeDefinitions []AttributeDefinition `json:"attributeDefinitions,omitempty"`
}

// DefaultSettings returns the settings applied to a freshly created vault
// and used as the fallback when loading stores written by older versions.
func DefaultSettings() VaultSettings {
	return VaultSettings{
		AutoLockMinutes: 15,
		EnableLogging:   true,
	}
}
