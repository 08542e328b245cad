/*
File Name:  Events.go

A small fan-out broadcaster for the /events websocket. Each subscriber
gets its own buffered channel; a slow or disconnected subscriber never
blocks publishing for anyone else, it just drops events once its buffer
fills.
*/

package webapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type eventKind string

const (
	eventPeerDiscovered   eventKind = "peer_discovered"
	eventBlockServed      eventKind = "block_served"
	eventDownloadProgress eventKind = "download_progress"
)

type apiEvent struct {
	Kind      eventKind `json:"kind"`
	Time      time.Time `json:"time"`
	RequestID string    `json:"request_id,omitempty"`
	PeerIP    string    `json:"peer_ip,omitempty"`
	BlocksOK  bool      `json:"blocks_ok,omitempty"`
	Done      uint64    `json:"done,omitempty"`
	Total     uint64    `json:"total,omitempty"`
}

const eventSubscriberBuffer = 32

type eventBus struct {
	mutex       sync.Mutex
	subscribers map[chan apiEvent]struct{}
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[chan apiEvent]struct{})}
}

func (b *eventBus) subscribe() chan apiEvent {
	ch := make(chan apiEvent, eventSubscriberBuffer)

	b.mutex.Lock()
	b.subscribers[ch] = struct{}{}
	b.mutex.Unlock()

	return ch
}

func (b *eventBus) unsubscribe(ch chan apiEvent) {
	b.mutex.Lock()
	delete(b.subscribers, ch)
	b.mutex.Unlock()

	close(ch)
}

func (b *eventBus) publish(event apiEvent) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default: // subscriber too slow, drop
		}
	}
}

// events returns a channel the caller must range over until it wants to
// stop; passing it to api.bus.unsubscribe releases the subscription.
func (api *Instance) events() chan apiEvent {
	return api.bus.subscribe()
}

// wireEvents chains the backend's existing Hooks so every hook call also
// publishes to the event bus, without discarding whatever hooks were set
// at Init time.
func (api *Instance) wireEvents() {
	hooks := api.Backend.Hooks

	prevPeerDiscovered := hooks.OnPeerDiscovered
	api.Backend.Hooks.OnPeerDiscovered = func(requestID uuid.UUID, peerIP string) {
		prevPeerDiscovered(requestID, peerIP)
		api.bus.publish(apiEvent{Kind: eventPeerDiscovered, Time: time.Now(), RequestID: requestID.String(), PeerIP: peerIP})
	}

	prevBlockServed := hooks.OnBlockServed
	api.Backend.Hooks.OnBlockServed = func(wholeHash []byte, blockID uint64, peerAddr string, err error) {
		prevBlockServed(wholeHash, blockID, peerAddr, err)
		api.bus.publish(apiEvent{Kind: eventBlockServed, Time: time.Now(), PeerIP: peerAddr, BlocksOK: err == nil})
	}

	prevDownloadProgress := hooks.OnDownloadProgress
	api.Backend.Hooks.OnDownloadProgress = func(requestID uuid.UUID, blocksDone, blocksTotal uint64) {
		prevDownloadProgress(requestID, blocksDone, blocksTotal)
		api.bus.publish(apiEvent{Kind: eventDownloadProgress, Time: time.Now(), RequestID: requestID.String(), Done: blocksDone, Total: blocksTotal})
	}
}
