package store

import (
	"context"
	"slices"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

type StatsStore struct {
	stats        []model.StatPoint
	totalUpdates int
	loading      bool
	err          error

	log *zap.Logger
}

func (s *StatsStore) Items() []model.StatPoint {
	return slices.Clone(s.stats)
}

// TotalUpdatesThisPeriod is the sum of updates over the fetched period.
func (s *StatsStore) TotalUpdatesThisPeriod() int { return s.totalUpdates }

func (s *StatsStore) Loading() bool { return s.loading }

func (s *StatsStore) Err() error { return s.err }

func (s *StatsStore) setStats(stats []model.StatPoint) {
	s.stats = stats
	s.totalUpdates = SumUpdates(stats)
}

func (s *StatsStore) setError(err error) {
	if err != nil {
		s.log.Debug("action failed", zap.Error(err))
	}
	s.err = err
}

// GetStats replaces the series with GET stats.
func (s *StatsStore) GetStats() Action {
	return Action{
		Name: "GetStats",
		Prepare: func() {
			s.setError(nil)
			s.loading = true
		},
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			stats, err := statsEndpoint.fetch(ctx, api, nil)
			return func() {
				s.loading = false
				if err != nil {
					s.setError(err)
					return
				}
				s.setStats(stats)
			}
		},
	}
}

func SumUpdates(stats []model.StatPoint) int {
	total := 0
	for _, p := range stats {
		total += p.Updates
	}
	return total
}
