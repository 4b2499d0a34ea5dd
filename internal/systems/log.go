package systems

import (
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// DefaultLogLimit bounds the action log when no limit is configured.
const DefaultLogLimit = 200

// Log records public events in sys.log, oldest first.
type Log struct {
	limit int
}

// NewLog creates the log system keeping at most limit entries.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &Log{limit: limit}
}

func (s *Log) Name() string { return "log" }

func (s *Log) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	if game.IsInternalEvent(evt.Type) {
		return sys, nil
	}
	entries := make([]game.ActionLogEntry, 0, len(sys.Log.Entries)+1)
	entries = append(entries, sys.Log.Entries...)
	entries = append(entries, game.ActionLogEntry{
		Seq:               sys.Seq + 1,
		Type:              evt.Type,
		SourceCommandType: evt.SourceCommandType,
		Timestamp:         evt.Timestamp,
		Payload:           evt.Payload,
	})
	if len(entries) > s.limit {
		entries = entries[len(entries)-s.limit:]
	}
	sys.Log = game.LogState{Entries: entries}
	return sys, nil
}
