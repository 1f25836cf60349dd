// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package workers runs the background tasks of the oracle. The vault core
// only exposes Lock/IsLocked; whether a lock comes from the user, a test
// harness, or the inactivity worker here is invisible to it.
package workers

// Worker is a long-running background task.
type Worker interface {
	Run()
	Stop()
}

// Workers aggregates the configured workers.
type Workers struct {
	workers []Worker
}

// New collects ws into an aggregate.
func New(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Run starts every worker.
func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// Stop stops every worker.
func (w *Workers) Stop() {
	for _, worker := range w.workers {
		worker.Stop()
	}
}
