// Package tictactoe is the smallest game on the engine: two players, one
// command, no phases. It doubles as a reference for wiring a domain.
package tictactoe

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

// Name is the registry name of the game.
const Name = "tictactoe"

const (
	CommandMove = "MOVE"

	EventMarkPlaced = "MARK_PLACED"
)

// Board holds the nine cells: 0 empty, 1 for X, 2 for O.
type Board struct {
	Cells   [9]int          `json:"cells"`
	Players []game.PlayerID `json:"players"`
	Turn    int             `json:"turn"`
}

type movePayload struct {
	Cell int `json:"cell"`
}

// MarkPlacedPayload accompanies MARK_PLACED.
type MarkPlacedPayload struct {
	PlayerID game.PlayerID `json:"playerId"`
	Cell     int           `json:"cell"`
	Mark     int           `json:"mark"`
}

// Domain implements game.DomainCore[Board].
type Domain struct{}

func (Domain) Setup(playerIDs []game.PlayerID, _ game.Random, _ json.RawMessage) (Board, error) {
	if len(playerIDs) != 2 {
		return Board{}, fmt.Errorf("tictactoe needs 2 players, got %d", len(playerIDs))
	}
	return Board{Players: slices.Clone(playerIDs)}, nil
}

func (Domain) Validate(state game.MatchState[Board], cmd game.Command) error {
	b := state.Core
	if cmd.Type != CommandMove {
		return engine.Rejectf(engine.CodeUnknownCommand, "unknown command %s", cmd.Type)
	}
	if cmd.PlayerID != b.Players[b.Turn] {
		return engine.Reject(engine.CodeNotYourTurn, "not your turn")
	}
	move, err := game.DecodePayload[movePayload](cmd.Payload)
	if err != nil {
		return engine.Reject(engine.CodeInvalid, err.Error())
	}
	if move.Cell < 0 || move.Cell > 8 {
		return engine.Rejectf(engine.CodeInvalidTarget, "cell %d out of range", move.Cell)
	}
	if b.Cells[move.Cell] != 0 {
		return engine.Rejectf(engine.CodeInvalidTarget, "cell %d already occupied", move.Cell)
	}
	return nil
}

func (Domain) Execute(state game.MatchState[Board], cmd game.Command, _ game.Random) ([]game.Event, error) {
	move, err := game.DecodePayload[movePayload](cmd.Payload)
	if err != nil {
		return nil, err
	}
	evt, err := game.NewEvent(EventMarkPlaced, MarkPlacedPayload{
		PlayerID: cmd.PlayerID,
		Cell:     move.Cell,
		Mark:     state.Core.Turn + 1,
	}, cmd.Timestamp)
	if err != nil {
		return nil, err
	}
	return []game.Event{evt}, nil
}

func (Domain) Reduce(b Board, evt game.Event) (Board, error) {
	if game.IsSystemEvent(evt.Type) {
		return b, nil
	}
	if evt.Type != EventMarkPlaced {
		return b, fmt.Errorf("unknown event %s", evt.Type)
	}
	var p MarkPlacedPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		return b, err
	}
	// Cells is an array, so the copy is already independent.
	b.Cells[p.Cell] = p.Mark
	b.Players = slices.Clone(b.Players)
	b.Turn = 1 - b.Turn
	return b, nil
}

func (Domain) PlayerView(state game.MatchState[Board], _ game.PlayerID) any {
	return state.Core
}

func (Domain) IsGameOver(b Board) (game.Outcome, bool) {
	for mark := 1; mark <= 2; mark++ {
		if b.checkWin(mark) {
			return game.Outcome{Winners: []game.PlayerID{b.Players[mark-1]}}, true
		}
	}
	if b.full() {
		return game.Outcome{Draw: true}, true
	}
	return game.Outcome{}, false
}

var winLines = [][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // cols
	{0, 4, 8}, {2, 4, 6}, // diags
}

func (b Board) checkWin(mark int) bool {
	for _, line := range winLines {
		if b.Cells[line[0]] == mark && b.Cells[line[1]] == mark && b.Cells[line[2]] == mark {
			return true
		}
	}
	return false
}

func (b Board) full() bool {
	return !slices.Contains(b.Cells[:], 0)
}

// TicTacToe implements game.Game.
type TicTacToe struct {
	Logger    logrus.FieldLogger
	UndoDepth int
}

func (TicTacToe) Info() game.GameInfo {
	return game.GameInfo{
		Name:       Name,
		MinPlayers: 2,
		MaxPlayers: 2,
	}
}

// Config wires the domain to the default systems. Tic-tac-toe has no
// phases or reactions, so only log, undo, interaction and rematch apply.
func (t TicTacToe) Config() engine.Config[Board] {
	var d Domain
	return engine.Config[Board]{
		Domain:  d,
		Systems: systems.Defaults[Board](d, systems.Options{UndoDepth: t.UndoDepth}),
		Logger:  t.Logger,
	}
}

func (t TicTacToe) NewMatch(config game.MatchConfig) (game.Match, error) {
	r, err := engine.NewRunner(t.Config(), config)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (t TicTacToe) ReplayMatch(config game.MatchConfig, entries []game.LogEntry) (game.Match, error) {
	r, err := engine.Replay(t.Config(), config, entries)
	if err != nil {
		return nil, err
	}
	return r, nil
}
