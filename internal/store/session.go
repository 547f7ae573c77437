package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/audio"
)

// Session is one run of the instrument.
type Session struct {
	ID        string     `json:"id"`
	Gesture   string     `json:"gesture"`
	Policy    string     `json:"policy"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Events    int        `json:"events"`
}

// SessionRepository manages sessions and their note events.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start opens a new session.
func (r *SessionRepository) Start(gesture, policy string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Gesture:   gesture,
		Policy:    policy,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, gesture, policy, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Gesture, sess.Policy, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// End marks a session as finished.
func (r *SessionRepository) End(id string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const sessionColumns = `s.id, s.gesture, s.policy, s.started_at, s.ended_at,
	(SELECT COUNT(*) FROM note_events e WHERE e.session_id = s.id)`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Gesture, &sess.Policy, &sess.StartedAt, &ended, &sess.Events); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(`SELECT ` + sessionColumns + ` FROM sessions s ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Delete removes a session and its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEvent appends a note event to a session.
func (r *SessionRepository) AddEvent(sessionID string, ev audio.Event) error {
	_, err := r.db.Exec(
		`INSERT INTO note_events (session_id, kind, hand, note, midi, velocity, duration_ms, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(ev.Kind), ev.Hand, string(ev.Note), ev.MIDI, ev.Velocity, ev.DurationMs, ev.At.UTC(),
	)
	return err
}

// Events returns a session's note events in the order they were played.
func (r *SessionRepository) Events(sessionID string) ([]audio.Event, error) {
	if _, err := r.GetByID(sessionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT kind, hand, note, midi, velocity, duration_ms, at
		 FROM note_events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []audio.Event{}
	for rows.Next() {
		var ev audio.Event
		var kind, note string
		if err := rows.Scan(&kind, &ev.Hand, &note, &ev.MIDI, &ev.Velocity, &ev.DurationMs, &ev.At); err != nil {
			return nil, err
		}
		ev.Kind = audio.EventKind(kind)
		ev.Note = audio.Note(note)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Sink returns an audio.Sink that records into a session.
func (r *SessionRepository) Sink(sessionID string) audio.Sink {
	return sessionSink{repo: r, id: sessionID}
}

type sessionSink struct {
	repo *SessionRepository
	id   string
}

func (s sessionSink) Record(ev audio.Event) error {
	return s.repo.AddEvent(s.id, ev)
}
