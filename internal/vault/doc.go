// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package vault owns the encrypted key store and its access protocol: the
// persisted store format (wallets, master-password hash, settings, and an
// integrity checksum over the business data), the pluggable storage
// backends, and the Session lock/unlock state machine that is the single
// holder of the plaintext master password.
//
// The persisted unit is always written whole; the checksum is a soft
// tamper signal, verified on unlock but never blocking it.
package vault
