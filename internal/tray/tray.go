// Package tray provides the system tray menu of the instrument.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/detector"
)

// Tray holds the menu state. Titles are computed without systray so they
// can be tested; the menu items only mirror them.
type Tray struct {
	onSound func(on bool)
	onOpen  func()
	onQuit  func()
	soundOn bool
	notes   map[detector.Label]audio.Note
	mu      sync.RWMutex

	menuSound *systray.MenuItem
	menuNotes map[detector.Label]*systray.MenuItem
}

// New creates a Tray with sound on.
func New() *Tray {
	return &Tray{
		soundOn: true,
		notes:   make(map[detector.Label]audio.Note, len(detector.Labels)),
	}
}

// OnSound sets the callback for the sound toggle.
func (t *Tray) OnSound(fn func(on bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSound = fn
}

// OnOpen sets the callback for the open-in-browser item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand instrument")

	t.mu.Lock()
	t.menuSound = systray.AddMenuItem(soundTitle(t.soundOn), "Turn sound on or off")
	systray.AddSeparator()
	t.menuNotes = make(map[detector.Label]*systray.MenuItem, len(detector.Labels))
	for _, l := range detector.Labels {
		item := systray.AddMenuItem(noteTitle(l, t.notes[l]), "Last note played by this hand")
		item.Disable()
		t.menuNotes[l] = item
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuSound.ClickedCh:
				t.ToggleSound()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func soundTitle(on bool) string {
	if on {
		return "● Sound On"
	}
	return "○ Sound Off"
}

func noteTitle(label detector.Label, note audio.Note) string {
	if note == "" {
		return fmt.Sprintf("%s: -", label)
	}
	return fmt.Sprintf("%s: %s", label, note)
}

// ToggleSound flips the sound state and reports it to the callback.
func (t *Tray) ToggleSound() {
	t.mu.Lock()
	t.soundOn = !t.soundOn
	on := t.soundOn
	if t.menuSound != nil {
		t.menuSound.SetTitle(soundTitle(on))
	}
	callback := t.onSound
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(on)
	}
}

// SetSound sets the sound state without calling back.
func (t *Tray) SetSound(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.soundOn = on
	if t.menuSound != nil {
		t.menuSound.SetTitle(soundTitle(on))
	}
}

// SoundOn returns the current sound state.
func (t *Tray) SoundOn() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.soundOn
}

// SetNote shows the last note a hand played.
func (t *Tray) SetNote(label detector.Label, note audio.Note) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notes[label] = note
	if item, ok := t.menuNotes[label]; ok {
		item.SetTitle(noteTitle(label, note))
	}
}

// NoteTitles returns the note items' titles in menu order.
func (t *Tray) NoteTitles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	titles := make([]string, 0, len(detector.Labels))
	for _, l := range detector.Labels {
		titles = append(titles, noteTitle(l, t.notes[l]))
	}
	return titles
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}
