package dicethrone

import "slices"

// ShieldConsumed is one line of the absorption audit trail.
type ShieldConsumed struct {
	SourceID         string `json:"sourceId"`
	Absorbed         int    `json:"absorbed"`
	Value            int    `json:"value,omitempty"`
	ReductionPercent int    `json:"reductionPercent,omitempty"`
}

// Absorption is the result of running damage through a shield list.
type Absorption struct {
	Damage    int              `json:"damage"`
	Consumed  []ShieldConsumed `json:"consumed,omitempty"`
	Remaining []DamageShield   `json:"remaining,omitempty"`
}

// AbsorbDamage runs amount through shields. Percentage shields apply first,
// each taking ceil(remaining*pct/100) and being used up. Flat shields then
// absorb in list order, keeping any residual value. PreventStatus shields
// never absorb. The input slice is not modified.
func AbsorbDamage(amount int, shields []DamageShield) Absorption {
	remaining := max(amount, 0)
	if remaining == 0 || len(shields) == 0 {
		return Absorption{Damage: remaining, Remaining: slices.Clone(shields)}
	}

	used := make([]bool, len(shields))
	values := make([]int, len(shields))
	var consumed []ShieldConsumed

	for i, s := range shields {
		if remaining == 0 {
			break
		}
		if s.PreventStatus || s.ReductionPercent <= 0 {
			continue
		}
		cut := min(ceilPercent(remaining, s.ReductionPercent), remaining)
		remaining -= cut
		used[i] = true
		consumed = append(consumed, ShieldConsumed{
			SourceID:         s.SourceID,
			Absorbed:         cut,
			ReductionPercent: s.ReductionPercent,
		})
	}

	for i, s := range shields {
		values[i] = s.Value
		if remaining == 0 || used[i] || s.PreventStatus || s.ReductionPercent > 0 || s.Value <= 0 {
			continue
		}
		absorbed := min(remaining, s.Value)
		remaining -= absorbed
		values[i] = s.Value - absorbed
		consumed = append(consumed, ShieldConsumed{
			SourceID: s.SourceID,
			Absorbed: absorbed,
			Value:    s.Value,
		})
	}

	var left []DamageShield
	for i, s := range shields {
		if used[i] {
			continue
		}
		if !s.PreventStatus && s.ReductionPercent <= 0 {
			if values[i] <= 0 {
				continue
			}
			s.Value = values[i]
		}
		left = append(left, s)
	}
	return Absorption{Damage: remaining, Consumed: consumed, Remaining: left}
}

func ceilPercent(amount, pct int) int {
	return (amount*pct + 99) / 100
}
