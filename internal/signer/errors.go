// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package signer

import (
	"errors"
	"fmt"
)

// ErrInvalidPrivateKey is returned when supplied key material is not a
// valid 32-byte secp256k1 scalar in hex form.
var ErrInvalidPrivateKey = errors.New("invalid private key format")

// MissingFieldError reports a required signing parameter that was not
// supplied. The field name is part of the message so callers can surface
// it directly.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsValidationError reports whether err is an input-validation failure
// (missing field or malformed key) as opposed to a signing failure.
func IsValidationError(err error) bool {
	var mf *MissingFieldError
	return errors.As(err, &mf) || errors.Is(err, ErrInvalidPrivateKey)
}
