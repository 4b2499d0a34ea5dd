package dicethrone

import (
	"sort"

	"github.com/deathcats4/BoardGame-sub001/internal/ability"
)

// firePassives runs every status and token the player holds whose passive
// trigger matches timing (and phase, when the trigger names one). Actions run
// once per held stack. A removable passive then loses one stack, unless its
// removal cost cannot be paid: the unpaid actions run and the stack stays.
func (b *builder) firePassives(playerID string, timing ability.PassiveTiming, phase string) {
	ps, ok := b.core().Players[playerID]
	if !ok {
		return
	}
	b.fireHeld(playerID, ps.Statuses, b.d.statuses, timing, phase, false)
	b.fireHeld(playerID, ps.Tokens, b.d.tokens, timing, phase, true)
}

func (b *builder) fireHeld(playerID string, held map[string]int, defs map[string]ability.StatusDef, timing ability.PassiveTiming, phase string, token bool) {
	ids := make([]string, 0, len(held))
	for id := range held {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		def, ok := defs[id]
		if !ok || def.Passive == nil || def.Passive.Timing != timing {
			continue
		}
		if def.Passive.Phase != "" && def.Passive.Phase != phase {
			continue
		}
		if b.err != nil || b.core().Players[playerID].HP <= 0 {
			return
		}
		stacks := held[id]
		r := b.runner(playerID, id, false)
		for range stacks {
			r.run(def.Passive.Actions...)
		}
		if !def.Passive.Removable {
			continue
		}
		if cost := def.Passive.RemovalCost; cost > 0 {
			if b.core().Players[playerID].CP < cost {
				r.run(def.Passive.UnpaidActions...)
				continue
			}
			b.gainCP(playerID, -cost)
		}
		if token {
			b.useToken(playerID, id, 1)
		} else {
			b.removeStatus(playerID, id, 1)
		}
	}
}
