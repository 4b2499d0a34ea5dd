// Package dicethrone is a two-player dice and card combat game. Heroes roll
// five dice to trigger attacks, defend with their own roll, and spend combat
// points on cards. Rules are data: heroes, cards, statuses and tokens come
// from the catalog package.
package dicethrone

import (
	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/game/dicethrone/catalog"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

// Name is the registry name of the game.
const Name = "dicethrone"

// TutorialFirstAttack walks a new player through one attack.
const TutorialFirstAttack = "first-attack"

// Options configures a Game. Zero values use the embedded catalog and the
// engine defaults.
type Options struct {
	Logger               logrus.FieldLogger
	CheatsEnabled        bool
	UndoDepth            int
	LogLimit             int
	MaxContinuationDepth int
	Catalog              *catalog.Catalog
}

// Game implements game.Game.
type Game struct {
	domain *Domain
	opts   Options
}

// New compiles the catalog and returns a game ready to create matches.
func New(opts Options) (*Game, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Load(); err != nil {
			return nil, err
		}
	}
	d, err := NewDomain(cat, opts.Logger)
	if err != nil {
		return nil, err
	}
	return &Game{domain: d, opts: opts}, nil
}

func (g *Game) Info() game.GameInfo {
	return game.GameInfo{
		Name:       Name,
		MinPlayers: 2,
		MaxPlayers: 2,
	}
}

// Domain returns the compiled rules.
func (g *Game) Domain() *Domain { return g.domain }

// Config wires the domain to the default systems.
func (g *Game) Config() engine.Config[Core] {
	return engine.Config[Core]{
		Domain: g.domain,
		Systems: systems.Defaults[Core](g.domain, systems.Options{
			CheatsEnabled: g.opts.CheatsEnabled,
			UndoDepth:     g.opts.UndoDepth,
			Undoable:      undoable,
			LogLimit:      g.opts.LogLimit,
			Tutorials:     []systems.TutorialScript{firstAttack},
			ResponseTriggers: []systems.ResponseTrigger{
				{EventType: EventAttackDeclared, WindowType: "attackDeclared"},
			},
			StepReducers: map[string]systems.StepReducer{KindModifyDice: diceStepReducer{}},
		}),
		MaxContinuationDepth: g.opts.MaxContinuationDepth,
		Logger:               g.opts.Logger,
	}
}

func (g *Game) NewMatch(config game.MatchConfig) (game.Match, error) {
	r, err := engine.NewRunner(g.Config(), config)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ReplayMatch rebuilds a match from its command log.
func (g *Game) ReplayMatch(config game.MatchConfig, entries []game.LogEntry) (game.Match, error) {
	r, err := engine.Replay(g.Config(), config, entries)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// undoable excludes dice rolls so a bad roll cannot be taken back. Other
// commands that happen to draw randomness lose their snapshot in the undo
// system.
func undoable(cmdType string) bool {
	return cmdType != CommandRollDice && !systems.IsHostCommand(cmdType)
}

var firstAttack = systems.TutorialScript{
	ID: TutorialFirstAttack,
	Steps: []systems.TutorialStep{
		{ID: "enter-roll", AllowedCommands: []string{systems.CommandAdvancePhase}, AdvanceOn: EventRollPhaseStarted},
		{ID: "roll", AllowedCommands: []string{CommandRollDice, CommandToggleDieLock, CommandConfirmRoll}, AdvanceOn: EventRollConfirmed},
		{ID: "attack", AdvanceOn: EventAttackResolved},
	},
}
