package systems

import (
	"maps"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Rematch collects rematch votes once the match is over. When every player
// is ready it emits SYS_REMATCH_READY and the host starts a new match.
type Rematch[C any] struct{}

// NewRematch creates the rematch system.
func NewRematch[C any]() *Rematch[C] {
	return &Rematch[C]{}
}

func (s *Rematch[C]) Name() string { return "rematch" }

func (s *Rematch[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	if ctx.Command.Type != CommandRematchVote {
		return engine.Continue()
	}
	sys := ctx.State.Sys
	if sys.GameOver == nil {
		return engine.Halt(engine.Reject(engine.CodeInvalid, "match is not over"))
	}
	if sys.Rematch.Ready {
		return engine.Halt(engine.Reject(engine.CodeInvalid, "rematch already agreed"))
	}
	p, err := game.DecodePayload[RematchVotePayload](ctx.Command.Payload)
	if err != nil {
		return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
	}

	events := []game.Event{game.MustEvent(game.EventRematchVoted, game.RematchVotedPayload{
		PlayerID: ctx.Command.PlayerID,
		Ready:    p.Ready,
	}, 0)}
	votes := maps.Clone(sys.Rematch.Votes)
	if votes == nil {
		votes = make(map[game.PlayerID]bool)
	}
	votes[ctx.Command.PlayerID] = p.Ready
	allReady := len(ctx.PlayerIDs) > 0
	for _, id := range ctx.PlayerIDs {
		if !votes[id] {
			allReady = false
			break
		}
	}
	if allReady {
		events = append(events, game.MustEvent(game.EventRematchReady, nil, 0))
	}
	return engine.Handled(events...)
}

func (s *Rematch[C]) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	switch evt.Type {
	case game.EventRematchVoted:
		p, err := game.DecodePayload[game.RematchVotedPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		votes := maps.Clone(sys.Rematch.Votes)
		if votes == nil {
			votes = make(map[game.PlayerID]bool)
		}
		votes[p.PlayerID] = p.Ready
		sys.Rematch = game.RematchState{Votes: votes, Ready: sys.Rematch.Ready}
	case game.EventRematchReady:
		sys.Rematch = game.RematchState{Votes: sys.Rematch.Votes, Ready: true}
	}
	return sys, nil
}
