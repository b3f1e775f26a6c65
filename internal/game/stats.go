package game

import (
	"tg-gift-roulette/gamble"

	"go.uber.org/atomic"
)

// Stats счетчики рулетки с момента запуска процесса
type Stats struct {
	spins    atomic.Int64
	wins     atomic.Int64
	stars    atomic.Int64
	rejected atomic.Int64
}

// StatsSnapshot снимок счетчиков
type StatsSnapshot struct {
	Spins    int64 `json:"spins"`
	Wins     int64 `json:"wins"`
	Empty    int64 `json:"empty"`
	Stars    int64 `json:"stars"`
	Rejected int64 `json:"rejected"`
}

func (s *Stats) record(p gamble.Prize) {
	s.spins.Inc()
	if !p.IsEmpty() {
		s.wins.Inc()
		s.stars.Add(int64(p.StarPrice))
	}
}

// Snapshot возвращает текущие значения
func (s *Stats) Snapshot() StatsSnapshot {
	spins := s.spins.Load()
	wins := s.wins.Load()
	return StatsSnapshot{
		Spins:    spins,
		Wins:     wins,
		Empty:    spins - wins,
		Stars:    s.stars.Load(),
		Rejected: s.rejected.Load(),
	}
}
