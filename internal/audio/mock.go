package audio

import (
	"sync"
	"time"
)

// MockVoice records every call for tests. It is ready unless told otherwise.
type MockVoice struct {
	mu       sync.Mutex
	events   []Event
	notReady bool
	err      error
}

// NewMockVoice creates a ready MockVoice.
func NewMockVoice() *MockVoice {
	return &MockVoice{}
}

// SetReady controls what Ready returns.
func (m *MockVoice) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notReady = !ready
}

// SetError makes every subsequent call fail with err.
func (m *MockVoice) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockVoice) add(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

// Attack implements Voice.
func (m *MockVoice) Attack(note Note, velocity float64) error {
	return m.add(Event{Kind: KindAttack, Note: note, Velocity: velocity})
}

// Release implements Voice.
func (m *MockVoice) Release(note Note) error {
	return m.add(Event{Kind: KindRelease, Note: note})
}

// AttackRelease implements Voice.
func (m *MockVoice) AttackRelease(note Note, duration time.Duration, velocity float64) error {
	return m.add(Event{Kind: KindAttackRelease, Note: note, Velocity: velocity, DurationMs: duration.Milliseconds()})
}

// Ready implements Voice.
func (m *MockVoice) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.notReady
}

// Events returns a copy of the recorded calls.
func (m *MockVoice) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Count returns how many recorded calls have the given kind.
func (m *MockVoice) Count(kind EventKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (m *MockVoice) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
