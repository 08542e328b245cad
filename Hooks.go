/*
File Name:  Hooks.go

Hooks let a caller observe internal events without coupling core logic
to any specific transport. Functions are called sequentially and block
execution; a slow hook should start its own goroutine.
*/

package core

import "github.com/google/uuid"

// Hooks contains all observability callbacks. Use nil for unused; Backend
// fills unset fields with no-op functions so callers never need nil checks.
type Hooks struct {
	// LogError is called for any error the core considers worth surfacing
	// beyond the structured log, e.g. for a control-plane event feed.
	LogError func(function, format string, v ...interface{})

	// OnPeerDiscovered is called once per distinct peer IP that answers a
	// discovery query during a single request's collection window.
	OnPeerDiscovered func(requestID uuid.UUID, peerIP string)

	// OnBlockServed is called after the block-serving acceptor finishes
	// writing a block back to a requester (or fails to).
	OnBlockServed func(wholeHash []byte, blockID uint64, peerAddr string, err error)

	// OnDownloadProgress is called by the Requester after each block is
	// downloaded and verified.
	OnDownloadProgress func(requestID uuid.UUID, blocksDone, blocksTotal uint64)
}

// initHooks sets default no-op functions for any unset field.
func (backend *Backend) initHooks() {
	if backend.Hooks.LogError == nil {
		backend.Hooks.LogError = func(function, format string, v ...interface{}) {}
	}
	if backend.Hooks.OnPeerDiscovered == nil {
		backend.Hooks.OnPeerDiscovered = func(requestID uuid.UUID, peerIP string) {}
	}
	if backend.Hooks.OnBlockServed == nil {
		backend.Hooks.OnBlockServed = func(wholeHash []byte, blockID uint64, peerAddr string, err error) {}
	}
	if backend.Hooks.OnDownloadProgress == nil {
		backend.Hooks.OnDownloadProgress = func(requestID uuid.UUID, blocksDone, blocksTotal uint64) {}
	}
}
