package database

import (
	"context"
	"time"

	"github.com/montekkundan/newsapi/internal/metrics"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

const DefaultStatsFrequency = 30 * time.Second

type StatSource interface {
	Stat() *pgxpool.Stat
}

type poolStatUpdater interface {
	Update(s metrics.PoolStat)
}

// StatsCollector periodically exports connection pool statistics.
type StatsCollector struct {
	ctx    context.Context
	logger zerolog.Logger

	source    StatSource
	metr      poolStatUpdater
	frequency time.Duration
}

func NewStatsCollector(ctx context.Context, logger zerolog.Logger, source StatSource, frequency time.Duration, metr *metrics.PoolStatusExporter) *StatsCollector {
	if frequency <= 0 {
		frequency = DefaultStatsFrequency
	}

	return &StatsCollector{
		ctx:       ctx,
		logger:    logger.With().Str("component", "pool_stats").Logger(),
		source:    source,
		metr:      metr,
		frequency: frequency,
	}
}

// Start blocks until the context is cancelled.
func (s *StatsCollector) Start() {
	s.logger.Info().Dur("trigger_frequency", s.frequency).Msg("pool stats collector has been started")
	defer s.logger.Info().Msg("pool stats collector has been finished")

	s.collect()

	t := time.NewTicker(s.frequency)
	defer t.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-t.C:
		}

		s.collect()
	}
}

func (s *StatsCollector) collect() {
	stat := s.source.Stat()
	if stat == nil {
		return
	}

	snapshot := poolStat(stat)
	s.metr.Update(snapshot)

	s.logger.Debug().
		Int32("acquired", snapshot.AcquiredConns).
		Int32("idle", snapshot.IdleConns).
		Int32("total", snapshot.TotalConns).
		Msg("pool stats have been collected")
}

func poolStat(stat *pgxpool.Stat) metrics.PoolStat {
	return metrics.PoolStat{
		AcquiredConns:        stat.AcquiredConns(),
		IdleConns:            stat.IdleConns(),
		TotalConns:           stat.TotalConns(),
		MaxConns:             stat.MaxConns(),
		AcquireCount:         stat.AcquireCount(),
		EmptyAcquireCount:    stat.EmptyAcquireCount(),
		CanceledAcquireCount: stat.CanceledAcquireCount(),
		AcquireDuration:      stat.AcquireDuration(),
	}
}
