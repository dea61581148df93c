// Package app provides application lifecycle management and events.
package app

import (
	"sync"
)

// State carries the status shown to the operator and fans out editor events
// to the UI.
type State struct {
	mu sync.RWMutex

	status string
	busy   bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventModeChanged
	EventMaskChanged
	EventSelectionChanged
	EventRecordsChanged
	EventMaskSaved
	EventBusyChanged
	EventStatus
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state.
func NewState() *State {
	return &State{
		status:    "Ready",
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
// Listeners run on the caller's goroutine.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := append([]EventListener(nil), s.listeners[event]...)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetStatus records an operator-facing message. Empty messages are ignored.
func (s *State) SetStatus(msg string) {
	if msg == "" {
		return
	}
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
	s.Emit(EventStatus, msg)
}

// Status returns the last status message.
func (s *State) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetBusy records whether a segmentation request is outstanding.
func (s *State) SetBusy(busy bool) {
	s.mu.Lock()
	changed := s.busy != busy
	s.busy = busy
	s.mu.Unlock()
	if changed {
		s.Emit(EventBusyChanged, busy)
	}
}

// Busy reports the last value passed to SetBusy.
func (s *State) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}
