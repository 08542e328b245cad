/*
File Name:  Announce.go

The announce loop processes the multicast discovery listener: one
dedicated goroutine reads each datagram, looks up the catalog, and
replies with the file's current availability (and, if requested,
connects back with metadata). Replies to a single query are independent
of each other; no coordination across peers is attempted.
*/

package core

import (
	"net"

	"github.com/netdrop/node/protocol"
	"github.com/sirupsen/logrus"
)

// RunAnnounceLoop processes datagrams from listener forever, using catalog
// to answer discovery queries. It returns only when Receive fails (e.g. the
// listener socket was closed).
func (backend *Backend) RunAnnounceLoop(listener *DatagramTransport) error {
	for {
		raw, sender, err := listener.Receive()
		if err != nil {
			return err
		}

		go backend.handleDiscoveryQuery(raw, sender)
	}
}

func (backend *Backend) handleDiscoveryQuery(raw []byte, sender net.Addr) {
	wholeHash, wantMetadata, err := protocol.DecodeDiscoveryQuery(raw)
	if err != nil {
		backend.Log.WithFields(logrus.Fields{"sender": sender}).Debug("announce: malformed discovery query")
		return
	}

	var blockIDs []uint64
	found := backend.Catalog.WithFileMut(wholeHash, func(file *LocalFile) {
		blockIDs = file.AnnounceOrder()
	})
	if !found {
		return // No catalog entry matches: silently drop, per §4.5 step 2.
	}

	if len(blockIDs) == 0 {
		return // Nothing to serve yet: suppress the reply, per §4.5 step 3.
	}

	reply := protocol.EncodeBlockList(blockIDs)
	if err := backend.replyAvailability(reply, sender); err != nil {
		backend.Log.WithFields(logrus.Fields{"sender": sender, "error": err}).Warn("announce: failed to send availability reply")
		backend.Hooks.LogError("handleDiscoveryQuery", "sending availability reply to %s: %s", sender, err.Error())
		return
	}

	if wantMetadata {
		backend.replyMetadata(wholeHash, sender)
	}
}

// replyAvailability sends raw to sender over a fresh UDP handle, as required
// by §4.5 step 3 (a listener socket must not be used to send unicast
// replies since it is bound to the multicast port).
func (backend *Backend) replyAvailability(raw []byte, sender net.Addr) error {
	handle, err := NewHandle(backend.Config.Listen)
	if err != nil {
		return err
	}
	defer handle.Close()

	return handle.SendTo(raw, sender)
}

// replyMetadata best-effort connects a TCP stream back to sender's address
// and writes the serialized FileMetadata. Connection failure is silently
// swallowed: another peer likely answered first.
func (backend *Backend) replyMetadata(wholeHash []byte, sender net.Addr) {
	udpAddr, ok := sender.(*net.UDPAddr)
	if !ok {
		return
	}

	conn, err := net.Dial("tcp", udpAddr.String())
	if err != nil {
		return
	}
	defer conn.Close()

	var file *LocalFile
	backend.Catalog.WithFileMut(wholeHash, func(f *LocalFile) {
		file = f
	})
	if file == nil {
		return
	}

	raw, err := protocol.EncodeFileMetadata(file.Metadata.WholeHash, file.Metadata.BlockHashes, file.Metadata.Size, file.Metadata.TrailingBytes)
	if err != nil {
		return
	}

	_, _ = conn.Write(raw)
}
