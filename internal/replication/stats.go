package replication

import "sync/atomic"

// Stats счетчики работы репликации
type Stats struct {
	PullCycles   atomic.Int64
	PushCycles   atomic.Int64
	Received     atomic.Int64
	Sent         atomic.Int64
	Conflicts    atomic.Int64
	Errors       atomic.Int64
	StreamEvents atomic.Int64
}

// StatsSnapshot неизменяемый снимок Stats
type StatsSnapshot struct {
	PullCycles   int64 `json:"pull_cycles"`
	PushCycles   int64 `json:"push_cycles"`
	Received     int64 `json:"received"`
	Sent         int64 `json:"sent"`
	Conflicts    int64 `json:"conflicts"`
	Errors       int64 `json:"errors"`
	StreamEvents int64 `json:"stream_events"`
}

// Snapshot возвращает текущие значения счетчиков
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		PullCycles:   s.PullCycles.Load(),
		PushCycles:   s.PushCycles.Load(),
		Received:     s.Received.Load(),
		Sent:         s.Sent.Load(),
		Conflicts:    s.Conflicts.Load(),
		Errors:       s.Errors.Load(),
		StreamEvents: s.StreamEvents.Load(),
	}
}
