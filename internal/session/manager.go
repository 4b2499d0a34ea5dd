package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/storage"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *game.Registry
	store    *storage.Store
	log      logrus.FieldLogger
}

// NewManager creates a session manager. A nil logger uses the logrus
// standard logger.
func NewManager(registry *game.Registry, store *storage.Store, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		store:    store,
		log:      logger.WithField("component", "session"),
	}
}

// Create makes a new session and persists it. Options are passed to the
// game's setup when the match starts.
func (m *Manager) Create(gameType string, options json.RawMessage) (*Session, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type: %s", gameType)
	}
	if len(options) > 0 && !json.Valid(options) {
		return nil, fmt.Errorf("options must be valid json")
	}
	code := generateCode()
	if err := m.store.CreateSession(code, gameType); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := NewSession(code, gameType, g)
	s.Options = options
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Start starts the session's match and persists its config and initial
// state with an empty command log.
func (m *Manager) Start(s *Session) error {
	if err := s.Start(); err != nil {
		return err
	}
	if err := m.store.ClearCommands(s.Code); err != nil {
		return fmt.Errorf("clear command log: %w", err)
	}
	return m.SaveMatchState(s)
}

// Dispatch runs a command in the session and persists what it committed: the
// log entry and a fresh snapshot. Persistence failures are logged, not
// returned, since the command has already taken effect in memory.
func (m *Manager) Dispatch(s *Session, cmd game.Command) (DispatchOutcome, error) {
	out, err := s.Dispatch(cmd)
	return m.commit(s, cmd, out, err)
}

// Expire times out the session's current interaction as the host and
// persists the result like any other command.
func (m *Manager) Expire(s *Session) (DispatchOutcome, error) {
	out, err := s.Expire()
	return m.commit(s, game.Command{Type: systems.CommandExpire, PlayerID: game.SystemPlayerID}, out, err)
}

func (m *Manager) commit(s *Session, cmd game.Command, out DispatchOutcome, err error) (DispatchOutcome, error) {
	if err != nil || !out.Result.Success {
		return out, err
	}
	log := m.log.WithFields(logrus.Fields{"session": s.Code, "command": cmd.Type, "player": cmd.PlayerID})
	if out.Rematched {
		// the vote belongs to the finished match; the new one starts clean
		if err := m.store.ClearCommands(s.Code); err != nil {
			log.WithError(err).Warn("clear command log")
		}
	} else if out.Entry != nil {
		if err := m.appendCommand(s.Code, *out.Entry); err != nil {
			log.WithError(err).Warn("append command log")
		}
	}
	if err := m.SaveMatchState(s); err != nil {
		log.WithError(err).Warn("save match state")
	}
	return out, nil
}

func (m *Manager) appendCommand(code string, entry game.LogEntry) error {
	data, err := json.Marshal(entry.Command)
	if err != nil {
		return err
	}
	return m.store.AppendCommand(code, storage.CommandRow{
		Seq:         entry.Seq,
		CommandJSON: string(data),
		RandomState: entry.RandomState,
	})
}

// SaveMatchState persists the session status, its match config and the
// current match snapshot.
func (m *Manager) SaveMatchState(s *Session) error {
	s.mu.RLock()
	match := s.Match
	status := s.Status
	s.mu.RUnlock()

	if err := m.store.UpdateSessionStatus(s.Code, string(status)); err != nil {
		return err
	}
	if err := m.SaveSessionConfig(s); err != nil {
		return err
	}
	if match == nil {
		return nil
	}
	s.mu.RLock()
	data, err := match.MarshalJSON()
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	return m.store.SaveMatchState(s.Code, string(data))
}

// Restore loads sessions from the database on startup. A playing session's
// match comes from its snapshot; when the snapshot is missing or unreadable
// the command log is replayed instead.
func (m *Manager) Restore() error {
	rows, err := m.store.ListSessions("")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		log := m.log.WithFields(logrus.Fields{"session": row.Code, "gameType": row.GameType})
		if row.Status == string(StatusFinished) {
			continue
		}
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			log.Warn("skipping session: unknown game type")
			continue
		}
		s := NewSession(row.Code, row.GameType, g)
		s.Status = Status(row.Status)

		cfg, err := decodeSessionConfig(row.ConfigJSON)
		if err != nil {
			log.WithError(err).Warn("skipping session: bad config")
			continue
		}
		s.HostID = cfg.HostID
		s.Seats = cfg.Players
		s.Seed = cfg.Seed
		s.Options = cfg.Options
		for _, id := range cfg.Players {
			s.Players[id] = &Player{ID: id, Send: make(chan []byte, 64)}
		}

		if s.Status == StatusPlaying {
			match, err := m.restoreMatch(g, s)
			if err != nil {
				log.WithError(err).Warn("skipping session: cannot restore match")
				continue
			}
			s.Match = match
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
	}
	return nil
}

func (m *Manager) restoreMatch(g game.Game, s *Session) (game.Match, error) {
	config := game.MatchConfig{PlayerIDs: s.Seats, Seed: s.Seed, Options: s.Options}
	snapErr := errors.New("no snapshot")
	if stateJSON, err := m.store.GetMatchState(s.Code); err == nil {
		match, err := g.NewMatch(config)
		if err != nil {
			return nil, err
		}
		if snapErr = match.UnmarshalJSON([]byte(stateJSON)); snapErr == nil {
			return match, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	replayer, ok := g.(game.Replayer)
	if !ok {
		return nil, fmt.Errorf("snapshot: %w", snapErr)
	}
	m.log.WithField("session", s.Code).WithError(snapErr).Info("snapshot unusable, replaying command log")
	entries, err := m.loadCommandLog(s.Code)
	if err != nil {
		return nil, err
	}
	return replayer.ReplayMatch(config, entries)
}

func (m *Manager) loadCommandLog(code string) ([]game.LogEntry, error) {
	rows, err := m.store.ListCommands(code)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	entries := make([]game.LogEntry, 0, len(rows))
	for _, row := range rows {
		var cmd game.Command
		if err := json.Unmarshal([]byte(row.CommandJSON), &cmd); err != nil {
			return nil, fmt.Errorf("decode command %d: %w", row.Seq, err)
		}
		entries = append(entries, game.LogEntry{Seq: row.Seq, Command: cmd, RandomState: row.RandomState})
	}
	return entries, nil
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.sessions, code)
	m.mu.Unlock()
	if err := m.store.DeleteSession(code); err != nil {
		m.log.WithField("session", code).WithError(err).Warn("delete session")
	}
}

// CleanupLoop removes stale sessions periodically until done is closed.
func (m *Manager) CleanupLoop(interval, maxAge time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanup(maxAge)
		case <-done:
			return
		}
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for code, s := range m.sessions {
		s.mu.RLock()
		empty := len(s.Players) == 0
		finished := s.Status == StatusFinished
		s.mu.RUnlock()

		if finished || empty {
			row, err := m.store.GetSession(code)
			if err != nil {
				delete(m.sessions, code)
				continue
			}
			if now.Sub(row.CreatedAt) > maxAge || empty {
				m.log.WithField("session", code).Info("cleaning up session")
				if err := m.store.DeleteSession(code); err != nil {
					m.log.WithField("session", code).WithError(err).Warn("delete session")
				}
				delete(m.sessions, code)
			}
		}
	}
}

// generateCode returns six hex characters taken from a random UUID.
func generateCode() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:6]
}

// sessionConfig is what a session needs to rebuild its match after a
// restart.
type sessionConfig struct {
	Players []string        `json:"players"`
	HostID  string          `json:"hostId"`
	Seed    uint64          `json:"seed,omitempty"`
	Options json.RawMessage `json:"options,omitempty"`
}

// SaveSessionConfig persists the seating, host, seed and options.
func (m *Manager) SaveSessionConfig(s *Session) error {
	s.mu.RLock()
	cfg := sessionConfig{
		Players: append([]string{}, s.Seats...),
		HostID:  s.HostID,
		Seed:    s.Seed,
		Options: s.Options,
	}
	s.mu.RUnlock()
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return m.store.SaveSessionConfig(s.Code, string(data))
}

func (m *Manager) loadSessionConfig(code string) (sessionConfig, error) {
	row, err := m.store.GetSession(code)
	if err != nil {
		return sessionConfig{}, err
	}
	return decodeSessionConfig(row.ConfigJSON)
}

func decodeSessionConfig(data string) (sessionConfig, error) {
	var cfg sessionConfig
	if data == "" {
		return cfg, nil
	}
	err := json.Unmarshal([]byte(data), &cfg)
	return cfg, err
}
