/*
File Name:  Node.go

Backend is the node's top-level handle: the shared catalog, the logger,
and the hooks a caller installs to observe internal events. Every
long-lived task (ping server, announce/serve loop) and every per-request
operation (Requester) is a method on *Backend so they all see the same
catalog and hooks.
*/

package core

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Backend ties together the catalog, configuration, logging, and hooks
// for one running node.
type Backend struct {
	Config  *Config
	Catalog *Catalog
	Log     *logrus.Logger
	Hooks   Hooks

	fs afero.Fs
}

// Init builds a Backend from config: configures logging, attaches the
// already-built catalog, and fills any unset Hooks with no-ops. It does not start any
// long-lived task; call RunServeLoop/RunAnnounceLoop/ServePing separately.
func Init(config *Config, fs afero.Fs, catalog *Catalog, hooks Hooks) (*Backend, error) {
	logger, err := InitLogging(config)
	if err != nil {
		return nil, err
	}

	backend := &Backend{
		Config:  config,
		Catalog: catalog,
		Log:     logger,
		Hooks:   hooks,
		fs:      fs,
	}
	backend.initHooks()

	return backend, nil
}
