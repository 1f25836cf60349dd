// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package workers

import (
	"time"

	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/internal/vault"
)

// AutoLock locks the vault session after the configured inactivity
// window. It polls rather than rescheduling a timer per request: the poll
// interval only bounds how late a lock can fire, and the session's
// activity clock is the single source of truth.
type AutoLock struct {
	session  *vault.Session
	interval time.Duration
	log      *logger.Logger
	stop     chan struct{}
}

// NewAutoLock builds the worker with the given poll interval.
func NewAutoLock(session *vault.Session, interval time.Duration, log *logger.Logger) *AutoLock {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &AutoLock{
		session:  session,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Run implements [Worker]. It returns immediately; the poll loop runs on
// its own goroutine until Stop.
func (a *AutoLock) Run() {
	go a.loop()
}

// Stop implements [Worker].
func (a *AutoLock) Stop() {
	close(a.stop)
}

func (a *AutoLock) loop() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.check()
		}
	}
}

func (a *AutoLock) check() {
	if a.session.IsLocked() {
		return
	}

	settings, err := a.session.Settings()
	if err != nil || settings.AutoLockMinutes <= 0 {
		return
	}

	window := time.Duration(settings.AutoLockMinutes) * time.Minute
	if time.Since(a.session.LastActivity()) < window {
		return
	}

	a.log.Info().
		Int("autoLockMinutes", settings.AutoLockMinutes).
		Msg("inactivity window expired, locking vault")
	a.session.Lock()
}
