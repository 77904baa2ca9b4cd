// Package sse implements a Server-Sent Events broker for vault and config
// notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeAutoOpen      = "vault.auto-open"
	TypeVaultCreated  = "vault.created"
	TypeVaultImported = "vault.imported"
	TypeConfigUpdated = "config.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// VaultRef is the payload of vault.* events.
type VaultRef struct {
	VaultPath string `json:"vaultPath"`
	VaultName string `json:"vaultName"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns mutable state (clients, retained
// events, config coalescing). Public methods talk to it over channels.
type Broker struct {
	configMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	retainCh      chan Event
	configCh      chan any
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. config.updated events are coalesced so that
// at most one is sent per configThrottle; the latest payload always wins.
func NewBroker(configThrottle time.Duration) *Broker {
	if configThrottle <= 0 {
		configThrottle = 500 * time.Millisecond
	}

	b := &Broker{
		configMin:     configThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		retainCh:      make(chan Event),
		configCh:      make(chan any, 64),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	retained := make(map[string][]byte)
	var retainedOrder []string

	var lastConfig time.Time
	var pendingConfig any
	var hasPending bool
	var configTimer *time.Timer
	var configTimerCh <-chan time.Time

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Client buffer full; skip to avoid blocking broker loop.
		}
	}

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch := range clients {
			send(ch, raw)
		}
	}

	flushConfig := func(now time.Time) {
		lastConfig = now
		hasPending = false
		broadcast(Event{Type: TypeConfigUpdated, Data: pendingConfig})
		pendingConfig = nil
	}

	for {
		select {
		case <-b.stopCh:
			if configTimer != nil {
				configTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			for _, typ := range retainedOrder {
				send(ch, retained[typ])
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case event := <-b.retainCh:
			raw, err := encode(event)
			if err != nil {
				continue
			}
			if _, ok := retained[event.Type]; !ok {
				retainedOrder = append(retainedOrder, event.Type)
			}
			retained[event.Type] = raw
			for ch := range clients {
				send(ch, raw)
			}

		case data := <-b.configCh:
			pendingConfig = data
			hasPending = true
			now := time.Now()
			if wait := b.configMin - now.Sub(lastConfig); wait > 0 {
				if configTimer == nil {
					configTimer = time.NewTimer(wait)
					configTimerCh = configTimer.C
				} else if configTimerCh == nil {
					configTimer.Reset(wait)
					configTimerCh = configTimer.C
				}
				continue
			}
			flushConfig(now)

		case <-configTimerCh:
			configTimerCh = nil
			if hasPending {
				flushConfig(time.Now())
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. Retained events are
// delivered first.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Retain broadcasts event and keeps it for clients that subscribe later.
// A newer event of the same type replaces the retained one.
func (b *Broker) Retain(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.retainCh <- event:
	case <-b.stopped:
	}
}

// PublishVaultEvent publishes vault.created or vault.imported.
func (b *Broker) PublishVaultEvent(kind, vaultPath, vaultName string) {
	ref := VaultRef{VaultPath: vaultPath, VaultName: vaultName}
	switch kind {
	case "created":
		b.Publish(Event{Type: TypeVaultCreated, Data: ref})
	case "imported":
		b.Publish(Event{Type: TypeVaultImported, Data: ref})
	}
}

// PublishConfig queues a coalesced config.updated event.
func (b *Broker) PublishConfig(data any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.configCh <- data:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
