// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrVaultLocked is returned by operations that need the session to be
	// unlocked.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrVaultExists is returned by Create when a vault is already
	// persisted.
	ErrVaultExists = errors.New("vault already exists")

	// ErrWalletNotFound is returned when a label or id resolves to no
	// wallet record.
	ErrWalletNotFound = errors.New("wallet not found")
)

// ValidationError reports a violated input constraint. The message names
// the constraint so the caller can surface it directly.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
