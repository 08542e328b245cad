/*
File Name:  Requester.go

The requester state machine (§4.6 S0-S7): announce readiness, send the
discovery query, collect responses for a bounded window, turn them into
a download order, fetch and verify each block from its sources in turn,
and finalize with the trailing bytes. Each run gets its own correlation
ID, carried by the metadata-collection log lines and by the
OnPeerDiscovered and OnDownloadProgress hooks; the per-source warnings and
LogError calls made while fetching blocks do not carry it.
*/

package core

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netdrop/node/protocol"
	"github.com/netdrop/node/warehouse"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// collectWindow is Δ, the bounded time the requester waits for discovery
// responses before building the download order.
const collectWindow = 1 * time.Second

// ErrNoMetadata is returned when no peer replied with FileMetadata within
// collectWindow.
var ErrNoMetadata = errors.New("requester: no metadata received within the collection window")

// ErrMetadataHashMismatch is returned when a metadata reply's whole_hash
// does not match the one requested — a protocol violation (§7 kind 2).
var ErrMetadataHashMismatch = errors.New("requester: metadata whole_hash does not match request")

// ErrBlockExhausted is returned when every known source for some block
// failed (§7 kind 4, no-source).
type ErrBlockExhausted struct {
	BlockID uint64
}

func (e *ErrBlockExhausted) Error() string {
	return fmt.Sprintf("requester: exhausted all sources for block %d", e.BlockID)
}

// Request runs one full S0-S7 cycle: discover wholeHash on the network,
// download it, verify every block, and write it to destPath in fs.
func (backend *Backend) Request(fs afero.Fs, wholeHash []byte, destPath string) error {
	requestID := uuid.New()
	log := backend.Log.WithFields(logrus.Fields{"request_id": requestID, "whole_hash": fmt.Sprintf("%x", wholeHash)})

	// S0: bind ephemeral sockets.
	handle, err := NewHandle(backend.Config.Listen)
	if err != nil {
		return err
	}
	defer handle.Close()

	// The TCP listener shares the handle's port number, since metadata
	// replies are sent back to the discovery query's source address.
	tcpPort := "0"
	if udpAddr, ok := handle.LocalAddr().(*net.UDPAddr); ok {
		tcpPort = strconv.Itoa(udpAddr.Port)
	}
	tcpListener, err := net.Listen("tcp", net.JoinHostPort(backend.Config.Listen, tcpPort))
	if err != nil {
		return err
	}
	defer tcpListener.Close()

	metadataCh := make(chan *warehouse.FileMetadata, 1)
	udpCh := make(chan struct {
		peerIP   string
		blockIDs []uint64
	})

	var tcpReady sync.Mutex
	ready := false

	// Listener task: accept at most one metadata connection.
	go func() {
		tcpReady.Lock()
		ready = true
		tcpReady.Unlock()

		conn, err := tcpListener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		raw, err := io.ReadAll(conn)
		if err != nil {
			log.WithFields(logrus.Fields{"error": err}).Debug("requester: reading metadata reply")
			return
		}

		metaHash, blockHashes, size, trailing, err := protocol.DecodeFileMetadata(raw)
		if err != nil {
			log.WithFields(logrus.Fields{"error": err}).Debug("requester: malformed metadata reply")
			return
		}

		metadataCh <- &warehouse.FileMetadata{WholeHash: metaHash, BlockHashes: blockHashes, Size: size, TrailingBytes: trailing}
	}()

	// UDP receiver task: collect every availability reply.
	stopReceiving := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopReceiving:
				return
			default:
			}

			raw, sender, err := handle.Receive()
			if err != nil {
				return
			}

			blockIDs, err := protocol.DecodeBlockList(raw)
			if err != nil {
				continue
			}

			peerIP := "unknown"
			if udpAddr, ok := sender.(*net.UDPAddr); ok {
				peerIP = udpAddr.IP.String()
			}

			select {
			case udpCh <- struct {
				peerIP   string
				blockIDs []uint64
			}{peerIP, blockIDs}:
			case <-stopReceiving:
				return
			}
		}
	}()

	// S1: wait for the TCP listener to be ready before sending the query.
	for {
		tcpReady.Lock()
		r := ready
		tcpReady.Unlock()
		if r {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	// S2: send the discovery query, requesting metadata.
	query, err := protocol.EncodeDiscoveryQuery(wholeHash, true)
	if err != nil {
		return err
	}
	if err := handle.SendMulticast(query); err != nil {
		return err
	}

	// S3: collect for Δ seconds.
	view := PeerBlockView{}
	seenPeers := map[string]bool{}
	var metadata *warehouse.FileMetadata

	deadline := time.After(collectWindow)
collect:
	for {
		select {
		case metadata = <-metadataCh:
		case entry := <-udpCh:
			if !seenPeers[entry.peerIP] {
				seenPeers[entry.peerIP] = true
				backend.Hooks.OnPeerDiscovered(requestID, entry.peerIP)
			}
			view.Extend(entry.peerIP, entry.blockIDs)
		case <-deadline:
			break collect
		}
	}
	close(stopReceiving)

	if metadata == nil {
		return ErrNoMetadata
	}
	if string(metadata.WholeHash) != string(wholeHash) {
		return ErrMetadataHashMismatch
	}

	// S4+S5: build sources and order blocks by rarity.
	pings := newPingCache(256)
	sources := BuildBlockSources(view, metadata.BlockCount(), pings)
	order := RarityOrder(sources)

	// S6: download.
	if err := backend.downloadBlocks(fs, destPath, requestID, metadata, sources, order); err != nil {
		return err
	}

	// S7: finalize with trailing bytes.
	return finalizeTrailingBytes(fs, destPath, metadata)
}

func (backend *Backend) downloadBlocks(fs afero.Fs, destPath string, requestID uuid.UUID, metadata *warehouse.FileMetadata, sources BlockSources, order []uint64) error {
	f, err := fs.OpenFile(destPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	blockSize := warehouse.BlockSize(metadata.Size)
	total := uint64(len(order))

	for done, blockID := range order {
		if int(blockID) >= len(sources) || len(sources[blockID]) == 0 {
			return &ErrBlockExhausted{BlockID: blockID}
		}

		data, err := backend.fetchBlockFromSources(metadata.WholeHash, blockID, metadata.BlockHashes[blockID], sources[blockID])
		if err != nil {
			return err
		}

		if _, err := f.WriteAt(data, int64(blockSize*blockID)); err != nil {
			return err
		}

		backend.Hooks.OnDownloadProgress(requestID, uint64(done+1), total)
	}

	return nil
}

// fetchBlockFromSources tries each source in order, per §4.6 S6: a zero-
// length reply, connect failure, or hash mismatch all fall through to the
// next source rather than aborting the whole request (OQ3 resolution).
func (backend *Backend) fetchBlockFromSources(wholeHash []byte, blockID uint64, expectedHash []byte, sources []BlockSource) ([]byte, error) {
	for _, source := range sources {
		data, err := requestBlock(source.PeerIP, wholeHash, blockID)
		if err != nil {
			backend.Log.WithFields(logrus.Fields{"peer": source.PeerIP, "block_id": blockID, "error": err}).Warn("requester: block source failed")
			backend.Hooks.LogError("fetchBlockFromSources", "block %d from %s: %s", blockID, source.PeerIP, err.Error())
			continue
		}
		if len(data) == 0 {
			continue
		}
		if !warehouse.VerifyBlock(data, expectedHash) {
			backend.Log.WithFields(logrus.Fields{"peer": source.PeerIP, "block_id": blockID}).Warn("requester: block hash mismatch, trying next source")
			backend.Hooks.LogError("fetchBlockFromSources", "block %d hash mismatch from %s, trying next source", blockID, source.PeerIP)
			continue
		}

		return data, nil
	}

	return nil, &ErrBlockExhausted{BlockID: blockID}
}

// requestBlock opens a TCP connection to peerIP:BasePort, sends the block
// request, half-closes the write side, and reads the reply until EOF.
func requestBlock(peerIP string, wholeHash []byte, blockID uint64) ([]byte, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(peerIP, strconv.Itoa(BasePort)))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	raw, err := protocol.EncodeBlockRequest(wholeHash, blockID)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(raw); err != nil {
		return nil, err
	}

	if closer, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = closer.CloseWrite()
	}

	return io.ReadAll(conn)
}

func finalizeTrailingBytes(fs afero.Fs, destPath string, metadata *warehouse.FileMetadata) error {
	if len(metadata.TrailingBytes) == 0 {
		return nil
	}

	f, err := fs.OpenFile(destPath, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	offset := int64(warehouse.BlockSize(metadata.Size) * metadata.BlockCount())
	_, err = f.WriteAt(metadata.TrailingBytes, offset)
	return err
}
