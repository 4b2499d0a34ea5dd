package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ErrNotStarted is returned for commands sent before the match exists.
var ErrNotStarted = errors.New("game not started")

// Player represents a connected player.
type Player struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is one game session with connected players. It is the single
// writer for its match: every Dispatch runs under the session lock.
type Session struct {
	mu       sync.RWMutex
	Code     string
	GameType string
	Status   Status
	HostID   string
	Players  map[string]*Player
	// Seats is the join order and becomes the turn order.
	Seats   []string
	Options json.RawMessage
	Seed    uint64
	Match   game.Match
	game    game.Game
}

// NewSession creates a session in the waiting state.
func NewSession(code, gameType string, g game.Game) *Session {
	return &Session{
		Code:     code,
		GameType: gameType,
		Status:   StatusWaiting,
		Players:  make(map[string]*Player),
		game:     g,
	}
}

// AddPlayer adds a player to the session. Returns error if full or already playing.
func (s *Session) AddPlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not accepting players")
	}
	info := s.game.Info()
	if len(s.Players) >= info.MaxPlayers {
		return fmt.Errorf("session is full")
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("player %s already in session", playerID)
	}
	s.seatLocked(playerID)
	return nil
}

func (s *Session) seatLocked(playerID string) {
	s.Players[playerID] = &Player{
		ID:   playerID,
		Send: make(chan []byte, 64),
	}
	if !slices.Contains(s.Seats, playerID) {
		s.Seats = append(s.Seats, playerID)
	}
	if s.HostID == "" {
		s.HostID = playerID
	}
}

// RemovePlayer removes a player from the session. A seated player keeps
// their seat once the match has started so they can reconnect.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Players[playerID]; ok {
		close(p.Send)
		delete(s.Players, playerID)
	}
	if s.Status == StatusWaiting {
		s.Seats = slices.DeleteFunc(s.Seats, func(id string) bool { return id == playerID })
	}
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	p.Send = send
	return true
}

// PlayerIDs returns the seated players in turn order.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.Seats)
}

// Start transitions the session from waiting to playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not in waiting state")
	}
	info := s.game.Info()
	if len(s.Seats) < info.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", info.MinPlayers, len(s.Seats))
	}
	return s.newMatchLocked()
}

func (s *Session) newMatchLocked() error {
	seed, err := engine.NewSeed()
	if err != nil {
		return err
	}
	config := game.MatchConfig{
		PlayerIDs: slices.Clone(s.Seats),
		Seed:      seed,
		Options:   s.Options,
	}
	match, err := s.game.NewMatch(config)
	if err != nil {
		return fmt.Errorf("new match: %w", err)
	}
	s.Seed = seed
	s.Match = match
	s.Status = StatusPlaying
	return nil
}

// Finish marks the session as finished.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFinished
}

// MatchConfig returns the config the current match was created with.
func (s *Session) MatchConfig() game.MatchConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return game.MatchConfig{PlayerIDs: slices.Clone(s.Seats), Seed: s.Seed, Options: s.Options}
}

// DispatchOutcome is what one session command produced.
type DispatchOutcome struct {
	Result game.DispatchResult
	// Entry is the replay log entry of a committed command.
	Entry *game.LogEntry
	// Rematched is set when the command completed a rematch vote and a new
	// match replaced the finished one.
	Rematched bool
}

// Dispatch runs a player's command against the match under the session
// lock. Rejections are reported in the result; the error is for commands the
// session cannot route at all.
func (s *Session) Dispatch(cmd game.Command) (DispatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Match == nil {
		return DispatchOutcome{}, ErrNotStarted
	}
	if !slices.Contains(s.Seats, cmd.PlayerID) {
		return DispatchOutcome{}, fmt.Errorf("player %s is not seated", cmd.PlayerID)
	}
	return s.dispatchLocked(cmd)
}

// Expire times out the current interaction on behalf of the host. It is the
// only path for commands from game.SystemPlayerID.
func (s *Session) Expire() (DispatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Match == nil {
		return DispatchOutcome{}, ErrNotStarted
	}
	return s.dispatchLocked(game.Command{Type: systems.CommandExpire, PlayerID: game.SystemPlayerID})
}

func (s *Session) dispatchLocked(cmd game.Command) (DispatchOutcome, error) {
	if cmd.Timestamp == 0 {
		cmd.Timestamp = time.Now().UnixMilli()
	}

	res := s.Match.Dispatch(cmd)
	out := DispatchOutcome{Result: res}
	if !res.Success {
		return out, nil
	}
	if log := s.Match.Log(); len(log) > 0 {
		entry := log[len(log)-1]
		out.Entry = &entry
	}
	if s.Match.IsOver() {
		s.Status = StatusFinished
	}
	for _, evt := range res.Events {
		if evt.Type != game.EventRematchReady {
			continue
		}
		if err := s.newMatchLocked(); err != nil {
			return out, fmt.Errorf("rematch: %w", err)
		}
		out.Rematched = true
		break
	}
	return out, nil
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// GetPlayer returns a player's send channel, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code     string   `json:"code"`
	GameType string   `json:"gameType"`
	Status   Status   `json:"status"`
	Players  []string `json:"players"`
	HostID   string   `json:"hostId"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

// InfoLocked returns info without acquiring the lock (caller must hold it).
func (s *Session) InfoLocked() Info {
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	return Info{
		Code:     s.Code,
		GameType: s.GameType,
		Status:   s.Status,
		Players:  slices.Clone(s.Seats),
		HostID:   s.HostID,
	}
}

// Lock/RLock/Unlock/RUnlock expose the mutex for the server's websocket handler.
func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }
