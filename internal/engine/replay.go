package engine

import (
	"fmt"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Replay rebuilds a match from its setup config and command log. Each entry
// runs with the random state it originally ran with; any divergence is an
// error because it means execute or reduce read a hidden input.
func Replay[C any](cfg Config[C], mc game.MatchConfig, entries []game.LogEntry) (*Runner[C], error) {
	r, err := NewRunner(cfg, mc)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		expected := r.state.Sys.Seq + 1
		if entry.Seq != expected {
			return nil, fmt.Errorf("command log gap: expected seq %d got %d", expected, entry.Seq)
		}
		if len(entry.RandomState) > 0 {
			if err := r.random.Restore(entry.RandomState); err != nil {
				return nil, err
			}
		}
		res := r.Dispatch(entry.Command)
		if !res.Success {
			return nil, fmt.Errorf("replay diverged at seq %d (%s): %w", entry.Seq, entry.Command.Type, res.Err)
		}
	}
	return r, nil
}
