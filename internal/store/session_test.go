package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/mudra/internal/audio"
)

func TestSessions_StartAndGet(t *testing.T) {
	repo := newTestStore(t).Sessions()

	sess, err := repo.Start("notes", "sustain")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Start() should assign an id")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Gesture != "notes" || got.Policy != "sustain" || got.EndedAt != nil || got.Events != 0 {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.StartedAt.Equal(sess.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, sess.StartedAt)
	}
}

func TestSessions_End(t *testing.T) {
	repo := newTestStore(t).Sessions()
	sess, _ := repo.Start("pinch", "discrete")

	if err := repo.End(sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	got, _ := repo.GetByID(sess.ID)
	if got.EndedAt == nil {
		t.Fatal("EndedAt should be set")
	}
	if got.EndedAt.Before(got.StartedAt) {
		t.Error("session ended before it started")
	}

	if err := repo.End(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second End() error = %v, want ErrNotFound", err)
	}
	if err := repo.End("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("End(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSessions_GetByID_NotFound(t *testing.T) {
	repo := newTestStore(t).Sessions()
	if _, err := repo.GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Events("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Events() error = %v, want ErrNotFound", err)
	}
}

func TestSessions_ListNewestFirst(t *testing.T) {
	repo := newTestStore(t).Sessions()
	first, _ := repo.Start("notes", "sustain")
	time.Sleep(5 * time.Millisecond)
	second, _ := repo.Start("notes", "sustain")

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("List() order wrong: %+v", list)
	}
}

func TestSessions_Events(t *testing.T) {
	repo := newTestStore(t).Sessions()
	sess, _ := repo.Start("notes", "sustain")
	other, _ := repo.Start("notes", "sustain")

	at := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	want := []audio.Event{
		{Kind: audio.KindAttack, Hand: "Left", Note: "E5", MIDI: 76, Velocity: 0.6, At: at},
		{Kind: audio.KindRelease, Hand: "Left", Note: "E5", MIDI: 76, At: at.Add(400 * time.Millisecond)},
	}

	sink := repo.Sink(sess.ID)
	for _, ev := range want {
		if err := sink.Record(ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	repo.AddEvent(other.ID, audio.Event{Kind: audio.KindAttackRelease, Hand: "Right", Note: "C6", MIDI: 84, DurationMs: 250, At: at})

	got, err := repo.Events(sess.ID)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	opts := cmp.Options{cmpopts.EquateApproxTime(time.Millisecond)}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("Events() mismatch (-want +got):\n%s", diff)
	}

	s, _ := repo.GetByID(sess.ID)
	if s.Events != 2 {
		t.Errorf("event count = %d, want 2", s.Events)
	}
}

func TestSessions_RecordUnknownSession(t *testing.T) {
	repo := newTestStore(t).Sessions()
	err := repo.Sink("missing").Record(audio.Event{Kind: audio.KindAttack, Hand: "Left", Note: "C5", At: time.Now()})
	if err == nil {
		t.Error("foreign key should reject events for an unknown session")
	}
}

func TestSessions_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()
	sess, _ := repo.Start("notes", "sustain")
	repo.AddEvent(sess.ID, audio.Event{Kind: audio.KindAttack, Hand: "Left", Note: "C5", MIDI: 72, At: time.Now()})

	if err := repo.Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var n int
	s.DB().QueryRow(`SELECT COUNT(*) FROM note_events`).Scan(&n)
	if n != 0 {
		t.Errorf("events left after delete = %d", n)
	}
	if err := repo.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSettings(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingMuted); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() unset error = %v, want ErrNotFound", err)
	}
	if repo.Bool(SettingMuted, true) != true {
		t.Error("Bool() should return the default when unset")
	}

	if err := repo.SetBool(SettingMuted, true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if err := repo.SetBool(SettingMuted, false); err != nil {
		t.Fatalf("SetBool() overwrite error = %v", err)
	}
	if repo.Bool(SettingMuted, true) {
		t.Error("Bool() = true after storing false")
	}

	repo.Set("garbled", "maybe")
	if !repo.Bool("garbled", true) {
		t.Error("malformed value should fall back to default")
	}
}
