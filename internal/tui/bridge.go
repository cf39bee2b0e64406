package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/fsinfo/pkg/scanner"
)

// ScanEventMsg wraps a scanner.Event for use as a tea.Msg.
type ScanEventMsg struct {
	Event scanner.Event
}

const bridgeBuffer = 256

// EventBridge adapts scanner events to bubble tea messages.
// It implements scanner.EventEmitter; Emit is called from many scan
// goroutines at once.
type EventBridge struct {
	mu        sync.Mutex
	eventChan chan tea.Msg
	closed    bool
	dropped   int
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, bridgeBuffer),
	}
}

// Emit implements scanner.EventEmitter. It never blocks the scan: when the
// buffer is full the event is dropped and counted.
func (b *EventBridge) Emit(event scanner.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	select {
	case b.eventChan <- ScanEventMsg{Event: event}:
	default:
		b.dropped++
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (b *EventBridge) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Subscribe returns the event channel for receiving events.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.eventChan
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Issue it again after handling each ScanEventMsg.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.eventChan
		if !ok {
			return nil
		}

		return msg
	}
}

// Close closes the event channel. Later Emits are ignored.
func (b *EventBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}
