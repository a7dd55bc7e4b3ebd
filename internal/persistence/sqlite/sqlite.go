// Package sqlite implements the persistence interfaces on top of a local
// SQLite database using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/whosreal/internal/persistence"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id             TEXT PRIMARY KEY,
	required_count INTEGER NOT NULL CHECK (required_count >= 2),
	created_at     INTEGER NOT NULL,
	close_at       INTEGER
);

CREATE TABLE IF NOT EXISTS memberships (
	room_id        TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	display_name   TEXT NOT NULL,
	joined_at      INTEGER NOT NULL,
	PRIMARY KEY (room_id, participant_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id TEXT NOT NULL,
	author  TEXT NOT NULL,
	text    TEXT NOT NULL,
	ts      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room_id, ts);
`

// Storage provides RoomRegistry, MembershipTracker and MessageLog backed by a
// single SQLite database. Timestamps are stored as Unix nanoseconds so cursor
// comparisons stay exact.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the database identified by dsn. The connection is limited
// to a single writer, which serializes per-room mutations without additional
// locking.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=2000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma: %w", err)
		}
	}

	return &Storage{db: db, now: time.Now}, nil
}

// SetNowFunc overrides the wall-clock source used for commit-time deadline
// checks. Intended for tests.
func (s *Storage) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping tests the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- RoomRegistry implementation ---

// EnsureRoom idempotently creates a room. An existing row wins: its required
// count and creation time are never overwritten.
func (s *Storage) EnsureRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	if room.ID == "" {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}
	if room.RequiredCount < 2 {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	createdAt := room.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rooms (id, required_count, created_at, close_at) VALUES (?, ?, ?, NULL)`,
		room.ID, room.RequiredCount, createdAt.UnixNano(),
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}

	return s.GetRoom(ctx, room.ID)
}

// GetRoom retrieves a room by ID.
func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, required_count, created_at, close_at FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// ListRooms returns all rooms ordered by ID.
func (s *Storage) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, required_count, created_at, close_at FROM rooms ORDER BY id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// ArmDeadline sets the room deadline when quorum holds and no deadline is
// set. The guarded UPDATE makes concurrent arming attempts race to exactly
// one winner.
func (s *Storage) ArmDeadline(ctx context.Context, roomID string, closeAt time.Time) (bool, error) {
	if roomID == "" {
		return false, persistence.ErrNotFound
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET close_at = ?
		WHERE id = ?
		  AND close_at IS NULL
		  AND (SELECT COUNT(*) FROM memberships WHERE room_id = rooms.id) >= required_count`,
		closeAt.UnixNano(), roomID,
	)
	if err != nil {
		return false, mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// ClearRoom wipes the room's messages and deadline in one transaction.
// Memberships stay in place.
func (s *Storage) ClearRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return persistence.ErrNotFound
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM rooms WHERE id = ?`, roomID).Scan(&exists); err != nil {
			return mapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}
		if _, err := tx.Exec(`DELETE FROM messages WHERE room_id = ?`, roomID); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(`UPDATE rooms SET close_at = NULL WHERE id = ?`, roomID); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// --- MembershipTracker implementation ---

// UpsertMembership inserts a join record or refreshes the display name of an
// existing one. JoinedAt is set on first insert only.
func (s *Storage) UpsertMembership(ctx context.Context, m persistence.Membership) (persistence.Membership, error) {
	if m.RoomID == "" || m.ParticipantID == "" || strings.TrimSpace(m.DisplayName) == "" {
		return persistence.Membership{}, persistence.ErrConstraintViolation
	}

	joinedAt := m.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (room_id, participant_id, display_name, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (room_id, participant_id) DO UPDATE SET display_name = excluded.display_name`,
		m.RoomID, m.ParticipantID, m.DisplayName, joinedAt.UnixNano(),
	)
	if err != nil {
		return persistence.Membership{}, mapError(err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT room_id, participant_id, display_name, joined_at
		FROM memberships WHERE room_id = ? AND participant_id = ?`,
		m.RoomID, m.ParticipantID,
	)

	var stored persistence.Membership
	var joinedNanos int64
	if err := row.Scan(&stored.RoomID, &stored.ParticipantID, &stored.DisplayName, &joinedNanos); err != nil {
		return persistence.Membership{}, mapError(err)
	}
	stored.JoinedAt = time.Unix(0, joinedNanos).UTC()
	return stored, nil
}

// ListMemberships returns a room's memberships ordered by join time.
func (s *Storage) ListMemberships(ctx context.Context, roomID string) ([]persistence.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, participant_id, display_name, joined_at
		FROM memberships WHERE room_id = ?
		ORDER BY joined_at ASC, participant_id ASC`, roomID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []persistence.Membership
	for rows.Next() {
		var m persistence.Membership
		var joinedNanos int64
		if err := rows.Scan(&m.RoomID, &m.ParticipantID, &m.DisplayName, &joinedNanos); err != nil {
			return nil, mapError(err)
		}
		m.JoinedAt = time.Unix(0, joinedNanos).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// CountMemberships returns the number of join records for a room.
func (s *Storage) CountMemberships(ctx context.Context, roomID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE room_id = ?`, roomID).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// --- MessageLog implementation ---

// AppendMessage commits a message after re-checking the room deadline inside
// the same transaction, closing the window between a render-time check and
// the submit.
func (s *Storage) AppendMessage(ctx context.Context, m persistence.Message) (persistence.Message, error) {
	if m.RoomID == "" || strings.TrimSpace(m.Author) == "" || strings.TrimSpace(m.Text) == "" {
		return persistence.Message{}, persistence.ErrConstraintViolation
	}

	sentAt := m.SentAt
	if sentAt.IsZero() {
		sentAt = s.now().UTC()
	}

	var stored persistence.Message
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var closeNanos sql.NullInt64
		err := tx.QueryRow(`SELECT close_at FROM rooms WHERE id = ?`, m.RoomID).Scan(&closeNanos)
		if err == sql.ErrNoRows {
			return persistence.ErrNotFound
		}
		if err != nil {
			return mapError(err)
		}
		if closeNanos.Valid && !s.now().Before(time.Unix(0, closeNanos.Int64)) {
			return persistence.ErrRoomClosed
		}

		result, err := tx.Exec(
			`INSERT INTO messages (room_id, author, text, ts) VALUES (?, ?, ?, ?)`,
			m.RoomID, m.Author, m.Text, sentAt.UnixNano(),
		)
		if err != nil {
			return mapError(err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted id: %w", err)
		}

		stored = persistence.Message{
			ID:     id,
			RoomID: m.RoomID,
			Author: m.Author,
			Text:   m.Text,
			SentAt: sentAt.UTC(),
		}
		return nil
	})
	if err != nil {
		return persistence.Message{}, err
	}
	return stored, nil
}

// ListMessages fetches the newest messages before the optional cursor and
// returns the page oldest-first.
func (s *Storage) ListMessages(ctx context.Context, roomID string, limit int, before *time.Time) ([]persistence.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT id, room_id, author, text, ts FROM messages WHERE room_id = ?`
	args := []any{roomID}
	if before != nil {
		query += ` AND ts < ?`
		args = append(args, before.UnixNano())
	}
	query += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var page []persistence.Message
	for rows.Next() {
		var m persistence.Message
		var tsNanos int64
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Author, &m.Text, &tsNanos); err != nil {
			return nil, mapError(err)
		}
		m.SentAt = time.Unix(0, tsNanos).UTC()
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	// Fetched newest-first, handed back oldest-first.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var createdNanos int64
	var closeNanos sql.NullInt64

	if err := row.Scan(&room.ID, &room.RequiredCount, &createdNanos, &closeNanos); err != nil {
		if err == sql.ErrNoRows {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}

	room.CreatedAt = time.Unix(0, createdNanos).UTC()
	if closeNanos.Valid {
		closeAt := time.Unix(0, closeNanos.Int64).UTC()
		room.CloseAt = &closeAt
	}
	return room, nil
}

func (s *Storage) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) ||
		errors.Is(err, persistence.ErrRoomClosed) ||
		errors.Is(err, persistence.ErrConstraintViolation) {
		return err
	}
	if err == sql.ErrNoRows {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return persistence.ErrDuplicate
	}
	if strings.Contains(msg, "CHECK constraint failed") {
		return persistence.ErrConstraintViolation
	}
	return err
}
