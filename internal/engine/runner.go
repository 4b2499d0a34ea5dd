package engine

import (
	"encoding/json"
	"fmt"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Runner owns one match: its state, random source and replay log. It
// implements game.Match. Callers serialize Dispatch.
type Runner[C any] struct {
	cfg       Config[C]
	config    game.MatchConfig
	state     game.MatchState[C]
	random    *SeededRandom
	playerIDs []game.PlayerID
	log       []game.LogEntry
}

// NewRunner sets up a match.
func NewRunner[C any](cfg Config[C], mc game.MatchConfig) (*Runner[C], error) {
	if cfg.Domain == nil {
		return nil, fmt.Errorf("domain is required")
	}
	if len(mc.PlayerIDs) == 0 {
		return nil, fmt.Errorf("at least one player is required")
	}
	random := NewSeededRandom(mc.Seed)
	players := append([]game.PlayerID(nil), mc.PlayerIDs...)
	core, err := cfg.Domain.Setup(players, random, mc.Options)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	var sys game.SysState
	for _, s := range cfg.Systems {
		if init, ok := s.(SysInitializer); ok {
			sys = init.InitSys(sys)
		}
	}
	return &Runner[C]{
		cfg:       cfg,
		config:    mc,
		state:     game.MatchState[C]{Core: core, Sys: sys},
		random:    random,
		playerIDs: players,
	}, nil
}

// State returns the authoritative state.
func (r *Runner[C]) State() game.MatchState[C] {
	return r.state
}

// PlayerIDs returns the seated players in turn order.
func (r *Runner[C]) PlayerIDs() []game.PlayerID {
	return append([]game.PlayerID(nil), r.playerIDs...)
}

// Dispatch runs one command through the pipeline. A failed command leaves
// both the state and the random source untouched.
func (r *Runner[C]) Dispatch(cmd game.Command) game.DispatchResult {
	before, err := r.random.State()
	if err != nil {
		return game.DispatchResult{Err: fmt.Errorf("%w: %v", ErrInvariant, err)}
	}
	res := ExecutePipeline(r.cfg, r.state, cmd, r.random, r.playerIDs)
	if !res.Success {
		if err := r.random.Restore(before); err != nil {
			return game.DispatchResult{Err: fmt.Errorf("%w: %v", ErrInvariant, err)}
		}
		return game.DispatchResult{Err: res.Err}
	}
	r.state = res.State
	r.log = append(r.log, game.LogEntry{
		Seq:         res.State.Sys.Seq,
		Command:     cmd,
		RandomState: before,
	})
	return game.DispatchResult{Success: true, Events: res.Events}
}

// View is the per-viewer projection sent over the wire.
type View struct {
	Core          any           `json:"core"`
	Sys           game.SysState `json:"sys"`
	UndoAvailable int           `json:"undoAvailable"`
}

// View projects the state for one viewer. Undo snapshots hold unfiltered
// state and never leave the runner; log entries go through the domain's
// event projection.
func (r *Runner[C]) View(playerID game.PlayerID) any {
	sys := r.state.Sys
	available := len(sys.Undo.Snapshots)
	sys.Undo.Snapshots = nil
	sys.Log = r.projectLog(sys.Log, playerID)
	return View{
		Core:          r.cfg.Domain.PlayerView(r.state, playerID),
		Sys:           sys,
		UndoAvailable: available,
	}
}

// ViewEvents returns the events playerID may see.
func (r *Runner[C]) ViewEvents(events []game.Event, playerID game.PlayerID) []game.Event {
	return game.EventsFor(events, playerID, r.projector())
}

func (r *Runner[C]) projector() game.EventProjector {
	p, _ := r.cfg.Domain.(game.EventProjector)
	return p
}

func (r *Runner[C]) projectLog(log game.LogState, playerID game.PlayerID) game.LogState {
	p := r.projector()
	if p == nil || len(log.Entries) == 0 {
		return log
	}
	entries := make([]game.ActionLogEntry, 0, len(log.Entries))
	for _, entry := range log.Entries {
		evt, ok := p.ProjectEvent(game.Event{
			Type:              entry.Type,
			Payload:           entry.Payload,
			Timestamp:         entry.Timestamp,
			SourceCommandType: entry.SourceCommandType,
		}, playerID)
		if !ok {
			continue
		}
		entry.Payload = evt.Payload
		entries = append(entries, entry)
	}
	return game.LogState{Entries: entries}
}

// IsOver reports whether the match has ended.
func (r *Runner[C]) IsOver() bool {
	return r.state.Sys.GameOver != nil
}

// Results ranks players from the recorded outcome.
func (r *Runner[C]) Results() []game.PlayerResult {
	outcome := r.state.Sys.GameOver
	if outcome == nil {
		return nil
	}
	winners := make(map[game.PlayerID]bool, len(outcome.Winners))
	for _, id := range outcome.Winners {
		winners[id] = true
	}
	results := make([]game.PlayerResult, 0, len(r.playerIDs))
	for _, id := range r.playerIDs {
		switch {
		case outcome.Draw:
			results = append(results, game.PlayerResult{PlayerID: id, Rank: 1})
		case winners[id]:
			results = append(results, game.PlayerResult{PlayerID: id, Rank: 1, Score: 1})
		default:
			results = append(results, game.PlayerResult{PlayerID: id, Rank: 2})
		}
	}
	return results
}

// Log returns the commands committed since the runner was created or loaded.
func (r *Runner[C]) Log() []game.LogEntry {
	return append([]game.LogEntry(nil), r.log...)
}

type runnerJSON[C any] struct {
	PlayerIDs []game.PlayerID    `json:"playerIds"`
	Seed      uint64             `json:"seed"`
	State     game.MatchState[C] `json:"state"`
	Random    []byte             `json:"random"`
}

func (r *Runner[C]) MarshalJSON() ([]byte, error) {
	random, err := r.random.State()
	if err != nil {
		return nil, err
	}
	return json.Marshal(runnerJSON[C]{
		PlayerIDs: r.playerIDs,
		Seed:      r.config.Seed,
		State:     r.state,
		Random:    random,
	})
}

func (r *Runner[C]) UnmarshalJSON(data []byte) error {
	var doc runnerJSON[C]
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	random := NewSeededRandom(doc.Seed)
	if err := random.Restore(doc.Random); err != nil {
		return err
	}
	r.playerIDs = doc.PlayerIDs
	r.config.PlayerIDs = doc.PlayerIDs
	r.config.Seed = doc.Seed
	r.state = doc.State
	r.random = random
	r.log = nil
	return nil
}
