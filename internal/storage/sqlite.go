// Package storage provides SQLite-based persistence for the recordings index,
// verification results and high scores.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// RecordingEntry indexes one recording file.
type RecordingEntry struct {
	ID            uuid.UUID
	Path          string
	Checksum      string // Header checksum in hex
	Tetrions      int
	Seed          uint64 // Seed of tetrion 0
	StartingLevel uint32
	Player        string
	Score         uint64 // Best final score across tetrions
	Lines         uint32
	Steps         uint64
	CreatedAt     time.Time
}

// VerificationEntry is the outcome of one replay verification.
type VerificationEntry struct {
	ID          int64
	RecordingID uuid.UUID
	OK          bool
	Message     string
	Steps       uint64
	VerifiedAt  time.Time
}

// ScoreEntry represents a single high score record.
type ScoreEntry struct {
	ID          int64
	RecordingID uuid.UUID // uuid.Nil for unrecorded games
	Player      string
	Score       uint64
	Level       uint32
	Lines       uint32
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck // Best-effort
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close() //nolint:errcheck // Best-effort
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			checksum TEXT NOT NULL,
			tetrions INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			starting_level INTEGER NOT NULL DEFAULT 0,
			player TEXT NOT NULL DEFAULT '',
			final_score INTEGER NOT NULL DEFAULT 0,
			lines INTEGER NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_recordings_checksum ON recordings(checksum);

		CREATE TABLE IF NOT EXISTS verifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recording_id TEXT NOT NULL,
			ok BOOLEAN NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			steps INTEGER NOT NULL DEFAULT 0,
			verified_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_verifications_recording ON verifications(recording_id);

		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recording_id TEXT,
			player TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			lines INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both time.Time and string datetime columns.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// nullUUID stores uuid.Nil as NULL.
func nullUUID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullUUID(v sql.NullString) (uuid.UUID, error) {
	if !v.Valid || v.String == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(v.String)
}

// SaveRecording indexes a recording. A new ID is generated when e.ID is
// uuid.Nil. Returns the ID of the indexed recording.
func (s *Store) SaveRecording(e RecordingEntry) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.Exec(
		`INSERT INTO recordings
		 (id, path, checksum, tetrions, seed, starting_level, player, final_score, lines, steps)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(),
		e.Path,
		e.Checksum,
		e.Tetrions,
		int64(e.Seed), // SQLite integers are signed; the bit pattern survives
		e.StartingLevel,
		e.Player,
		int64(e.Score),
		e.Lines,
		int64(e.Steps),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storage: cannot save recording: %w", err)
	}
	return e.ID, nil
}

// FinishRecording stores the final result of a recorded game.
func (s *Store) FinishRecording(id uuid.UUID, score uint64, lines uint32, steps uint64) error {
	res, err := s.db.Exec(
		"UPDATE recordings SET final_score = ?, lines = ?, steps = ? WHERE id = ?",
		int64(score), lines, int64(steps), id.String(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish recording: %w", err)
	}
	return expectOneRow(res, id)
}

// MoveRecording updates the file path of a recording, e.g. after archiving.
func (s *Store) MoveRecording(id uuid.UUID, path string) error {
	res, err := s.db.Exec("UPDATE recordings SET path = ? WHERE id = ?", path, id.String())
	if err != nil {
		return fmt.Errorf("storage: cannot move recording: %w", err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage: no recording %s", id)
	}
	return nil
}

const recordingColumns = `id, path, checksum, tetrions, seed, starting_level, player, final_score, lines, steps, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (RecordingEntry, error) {
	var (
		e         RecordingEntry
		id        string
		seed      int64
		score     int64
		steps     int64
		createdAt any
	)
	if err := row.Scan(&id, &e.Path, &e.Checksum, &e.Tetrions, &seed, &e.StartingLevel,
		&e.Player, &score, &e.Lines, &steps, &createdAt); err != nil {
		return e, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return e, fmt.Errorf("storage: invalid recording id %q: %w", id, err)
	}
	e.ID = parsed
	e.Seed = uint64(seed)
	e.Score = uint64(score)
	e.Steps = uint64(steps)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func (s *Store) recordingWhere(column string, value any) (*RecordingEntry, error) {
	row := s.db.QueryRow(
		"SELECT "+recordingColumns+" FROM recordings WHERE "+column+" = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		value,
	)
	e, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query recording: %w", err)
	}
	return &e, nil
}

// Recording retrieves a recording by ID. Returns nil if it is unknown.
func (s *Store) Recording(id uuid.UUID) (*RecordingEntry, error) {
	return s.recordingWhere("id", id.String())
}

// RecordingByPath retrieves a recording by file path. Returns nil if it is unknown.
func (s *Store) RecordingByPath(path string) (*RecordingEntry, error) {
	return s.recordingWhere("path", path)
}

// RecordingByChecksum retrieves the newest recording with the given header
// checksum. Returns nil if it is unknown.
func (s *Store) RecordingByChecksum(checksum string) (*RecordingEntry, error) {
	return s.recordingWhere("checksum", checksum)
}

// Recordings retrieves the most recent recordings.
func (s *Store) Recordings(limit int) ([]RecordingEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT "+recordingColumns+" FROM recordings ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query recordings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best-effort

	var entries []RecordingEntry
	for rows.Next() {
		e, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// DeleteRecording removes a recording and its verifications from the index.
// The file itself is left alone.
func (s *Store) DeleteRecording(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.Exec("DELETE FROM verifications WHERE recording_id = ?", id.String()); err != nil {
		return fmt.Errorf("storage: cannot delete verifications: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM recordings WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("storage: cannot delete recording: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit: %w", err)
	}
	return nil
}

// SaveVerification records the outcome of verifying a recording.
// Returns the ID of the inserted record.
func (s *Store) SaveVerification(v VerificationEntry) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO verifications (recording_id, ok, message, steps) VALUES (?, ?, ?, ?)",
		v.RecordingID.String(), v.OK, v.Message, int64(v.Steps),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save verification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// Verifications retrieves the verification history of a recording, newest first.
func (s *Store) Verifications(recordingID uuid.UUID) ([]VerificationEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, recording_id, ok, message, steps, verified_at
		 FROM verifications
		 WHERE recording_id = ?
		 ORDER BY verified_at DESC, id DESC`,
		recordingID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query verifications: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best-effort

	var entries []VerificationEntry
	for rows.Next() {
		var (
			v          VerificationEntry
			id         string
			steps      int64
			verifiedAt any
		)
		if err := rows.Scan(&v.ID, &id, &v.OK, &v.Message, &steps, &verifiedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		if v.RecordingID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("storage: invalid recording id %q: %w", id, err)
		}
		v.Steps = uint64(steps)
		v.VerifiedAt = parseTime(verifiedAt)
		entries = append(entries, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// SaveScore records a new score.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(e ScoreEntry) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (recording_id, player, score, level, lines) VALUES (?, ?, ?, ?, ?)",
		nullUUID(e.RecordingID), e.Player, int64(e.Score), e.Level, e.Lines,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores.
// Results are ordered by score descending.
func (s *Store) TopScores(limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, recording_id, player, score, level, lines, created_at
		 FROM scores
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best-effort

	var entries []ScoreEntry
	for rows.Next() {
		var (
			e           ScoreEntry
			recordingID sql.NullString
			score       int64
			createdAt   any
		)
		if err := rows.Scan(&e.ID, &recordingID, &e.Player, &score, &e.Level, &e.Lines, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		if e.RecordingID, err = parseNullUUID(recordingID); err != nil {
			return nil, fmt.Errorf("storage: invalid recording id %q: %w", recordingID.String, err)
		}
		e.Score = uint64(score)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score.
// Returns 0 if no scores exist.
func (s *Store) HighScore() (uint64, error) {
	var score sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(score) FROM scores").Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return uint64(score.Int64), nil
}

// ClearScores deletes all scores.
func (s *Store) ClearScores() error {
	_, err := s.db.Exec("DELETE FROM scores")
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// Stats contains aggregated statistics over all indexed recordings.
type Stats struct {
	Recordings    int
	Verified      int // Recordings with at least one successful verification
	Diverged      int // Recordings whose latest verification failed
	HighScore     uint64
	TotalLines    int64
	LastRecording time.Time
}

// GetStats retrieves aggregated statistics.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	var highScore int64
	var last any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(final_score), 0), COALESCE(SUM(lines), 0), MAX(created_at)
		 FROM recordings`,
	).Scan(&stats.Recordings, &highScore, &stats.TotalLines, &last)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.HighScore = uint64(highScore)
	stats.LastRecording = parseTime(last)

	err = s.db.QueryRow(
		`SELECT COUNT(DISTINCT recording_id) FROM verifications WHERE ok`,
	).Scan(&stats.Verified)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot count verified recordings: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM verifications v
		 WHERE NOT v.ok AND v.id = (SELECT MAX(id) FROM verifications WHERE recording_id = v.recording_id)`,
	).Scan(&stats.Diverged)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot count diverged recordings: %w", err)
	}

	return stats, nil
}
