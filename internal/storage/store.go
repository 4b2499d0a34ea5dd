package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SessionRow represents a session in the database.
type SessionRow struct {
	Code       string
	GameType   string
	Status     string // "waiting", "playing", "finished"
	ConfigJSON string // seating, seed and match options
	CreatedAt  time.Time
}

// MatchStateRow represents serialized match state.
type MatchStateRow struct {
	SessionCode string
	StateJSON   string
	UpdatedAt   time.Time
}

// CommandRow is one committed command of a match, in replay order.
type CommandRow struct {
	Seq         uint64
	CommandJSON string
	RandomState []byte
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code        TEXT PRIMARY KEY,
			game_type   TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'waiting',
			config_json TEXT NOT NULL DEFAULT '{}',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS command_log (
			session_code TEXT NOT NULL REFERENCES sessions(code),
			seq          INTEGER NOT NULL,
			command_json TEXT NOT NULL,
			random_state BLOB,
			PRIMARY KEY (session_code, seq)
		);
	`)
	return err
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(code, gameType string) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, game_type, status) VALUES (?, ?, 'waiting')",
		code, gameType,
	)
	return err
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	row := s.db.QueryRow("SELECT code, game_type, status, config_json, created_at FROM sessions WHERE code = ?", code)
	var sr SessionRow
	if err := row.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.ConfigJSON, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// SaveSessionConfig stores the match configuration a session was started with.
func (s *Store) SaveSessionConfig(code, configJSON string) error {
	res, err := s.db.Exec("UPDATE sessions SET config_json = ? WHERE code = ?", configJSON, code)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(status string) ([]SessionRow, error) {
	const cols = "SELECT code, game_type, status, config_json, created_at FROM sessions"
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(cols + " ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query(cols+" WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.ConfigJSON, &sr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveMatchState upserts match state JSON.
func (s *Store) SaveMatchState(sessionCode, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves match state JSON.
func (s *Store) GetMatchState(sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	return stateJSON, err
}

// AppendCommand records a committed command. Sequence numbers are unique per
// session; appending the same seq twice is an error.
func (s *Store) AppendCommand(sessionCode string, row CommandRow) error {
	_, err := s.db.Exec(
		"INSERT INTO command_log (session_code, seq, command_json, random_state) VALUES (?, ?, ?, ?)",
		sessionCode, int64(row.Seq), row.CommandJSON, row.RandomState,
	)
	return err
}

// ListCommands returns a session's command log in sequence order.
func (s *Store) ListCommands(sessionCode string) ([]CommandRow, error) {
	rows, err := s.db.Query(
		"SELECT seq, command_json, random_state FROM command_log WHERE session_code = ? ORDER BY seq",
		sessionCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []CommandRow
	for rows.Next() {
		var (
			cr  CommandRow
			seq int64
		)
		if err := rows.Scan(&seq, &cr.CommandJSON, &cr.RandomState); err != nil {
			return nil, err
		}
		cr.Seq = uint64(seq)
		result = append(result, cr)
	}
	return result, rows.Err()
}

// ClearCommands drops a session's command log, as when a rematch starts a
// new match.
func (s *Store) ClearCommands(sessionCode string) error {
	_, err := s.db.Exec("DELETE FROM command_log WHERE session_code = ?", sessionCode)
	return err
}

// DeleteSession removes a session with its match state and command log.
func (s *Store) DeleteSession(code string) error {
	for _, q := range []string{
		"DELETE FROM command_log WHERE session_code = ?",
		"DELETE FROM match_state WHERE session_code = ?",
		"DELETE FROM sessions WHERE code = ?",
	} {
		if _, err := s.db.Exec(q, code); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
