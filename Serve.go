/*
File Name:  Serve.go

The second half of the announce/serve subsystem: a TCP acceptor on
BasePort that serves block contents. Each accepted connection is handled
by its own goroutine; the sender is expected to half-close its write
side after sending the request and then read the block bytes until EOF.
*/

package core

import (
	"io"
	"net"
	"strconv"

	"github.com/netdrop/node/protocol"
	"github.com/netdrop/node/warehouse"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// RunServeLoop accepts TCP connections on host:BasePort forever, serving
// block contents read from fs. It returns only on listener error.
func (backend *Backend) RunServeLoop(fs afero.Fs, host string) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(BasePort)))
	if err != nil {
		return err
	}
	defer listener.Close()

	return backend.ServeBlocksOn(fs, listener)
}

// ServeBlocksOn runs the accept loop against an already-bound listener.
// Split out from RunServeLoop so tests can control the listener's
// lifetime explicitly.
func (backend *Backend) ServeBlocksOn(fs afero.Fs, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}

		go backend.serveBlockConnection(fs, conn)
	}
}

func (backend *Backend) serveBlockConnection(fs afero.Fs, conn net.Conn) {
	defer conn.Close()

	raw, err := io.ReadAll(conn)
	if err != nil {
		backend.Log.WithFields(logrus.Fields{"error": err}).Debug("serve: reading block request")
		return
	}

	wholeHash, blockID, err := protocol.DecodeBlockRequest(raw)
	if err != nil {
		backend.Log.WithFields(logrus.Fields{"error": err}).Debug("serve: malformed block request")
		return
	}

	var file *LocalFile
	backend.Catalog.WithFileMut(wholeHash, func(f *LocalFile) {
		file = f
		f.incServe(blockID)
	})
	if file == nil {
		backend.Log.WithFields(logrus.Fields{"whole_hash": wholeHash}).Info("serve: unknown whole_hash requested")
		backend.Hooks.LogError("serveBlockConnection", "unknown whole_hash requested by %s", conn.RemoteAddr())
		return
	}
	defer backend.Catalog.WithFileMut(wholeHash, func(f *LocalFile) {
		f.decServe(blockID)
	})

	data, err := warehouse.ReadBlock(fs, file.LocalPath, file.Metadata.Size, blockID)
	if err != nil {
		backend.Log.WithFields(logrus.Fields{"error": err, "block_id": blockID}).Warn("serve: reading block from disk")
		backend.Hooks.LogError("serveBlockConnection", "reading block %d from %s: %s", blockID, file.LocalPath, err.Error())
		backend.Hooks.OnBlockServed(wholeHash, blockID, conn.RemoteAddr().String(), err)
		return
	}

	_, err = conn.Write(data)
	backend.Hooks.OnBlockServed(wholeHash, blockID, conn.RemoteAddr().String(), err)
}
