package services

import (
	"context"

	"go.uber.org/zap"

	"streampool/internal/core/domain"
	"streampool/internal/core/ports"
	apperrors "streampool/pkg/errors"
	"streampool/pkg/tracing"
	"streampool/pkg/utils"
)

// PoolMetrics receives pool sizing observations. Implementations must not
// block.
type PoolMetrics interface {
	ObservePool(poolSize, usedCount int)
	CountAcquire(outcome string)
}

// PoolConfig carries the sizing policy for the warm pool.
type PoolConfig struct {
	// StartingSize is the pool size below which a background replacement
	// is provisioned whenever a stream is handed out.
	StartingSize int
	// ThresholdPercent is the utilization level above which a background
	// replacement is provisioned. Utilization is the share of non-stopped
	// streams seen before the one being handed out.
	ThresholdPercent int
}

// poolService hands out idle streams from the account's pool. Membership is
// never cached: every acquire lists the account's streams fresh, so the pool
// is always authoritative as of the last list call even though the remote
// service stops idle streams on its own schedule.
type poolService struct {
	api     ports.StreamAPI
	cfg     PoolConfig
	logger  *zap.SugaredLogger
	metrics PoolMetrics

	// spawn runs background replenishment. Tests replace it to run the
	// create inline.
	spawn func(func())
}

// NewPoolService builds the pool allocator. metrics may be nil.
func NewPoolService(api ports.StreamAPI, cfg PoolConfig, logger *zap.SugaredLogger, metrics PoolMetrics) ports.PoolService {
	return &poolService{
		api:     api,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		spawn:   func(f func()) { go f() },
	}
}

// Acquire walks the account's streams in list order and returns the first
// stopped one, creating a fresh stream when the pool is empty or fully busy.
// The walk is strictly sequential, one state fetch at a time, trading latency
// for request-volume predictability against the remote API's rate limits.
func (s *poolService) Acquire(ctx context.Context, params *domain.StreamParams) (domain.StreamID, error) {
	ctx, span := tracing.StartSpan(ctx, "pool.acquire")
	defer span.End()

	effective := s.effectiveParams(params)
	// The final name is assigned from the pool size discovered below, so
	// pre-flight validation runs with a provisional one.
	probe := effective
	if probe.Name == "" {
		probe.Name = utils.PoolStreamName(1)
	}
	if err := probe.Validate(); err != nil {
		s.count("invalid_params")
		return "", err
	}

	ids, err := s.api.FetchAllLiveStreams(ctx)
	if err != nil {
		s.count("list_failed")
		tracing.RecordError(ctx, err)
		return "", err
	}
	poolSize := len(ids)
	tracing.AddSpanAttributes(ctx, tracing.PoolSizeKey.Int(poolSize))

	if poolSize == 0 {
		id, err := s.create(ctx, effective, poolSize)
		if err != nil {
			s.count("create_failed")
			return "", err
		}
		s.count("created_empty_pool")
		return id, nil
	}

	usedCount := 0
	for _, id := range ids {
		state, err := s.api.FetchState(ctx, id)
		if err != nil {
			s.count("walk_failed")
			tracing.RecordError(ctx, err)
			return "", err
		}
		if state != domain.StateStopped {
			usedCount++
			continue
		}

		if s.shouldReplenish(poolSize, usedCount) {
			s.replenish(effective, poolSize)
		}
		s.observe(poolSize, usedCount)
		s.count("reused")
		s.logger.Infow("idle stream acquired",
			"stream_id", id, "pool_size", poolSize, "used_count", usedCount)
		return id, nil
	}

	// Every stream is busy; grow the pool synchronously.
	s.observe(poolSize, usedCount)
	id, err := s.create(ctx, effective, poolSize)
	if err != nil {
		s.count("create_failed")
		return "", err
	}
	s.count("created_exhausted")
	return id, nil
}

func (s *poolService) effectiveParams(params *domain.StreamParams) domain.StreamParams {
	if params == nil {
		return domain.DefaultStreamParams()
	}
	return *params
}

// shouldReplenish decides whether handing out a stream warrants provisioning
// a background replacement: either the pool is smaller than its starting
// size, or utilization so far exceeds the threshold.
func (s *poolService) shouldReplenish(poolSize, usedCount int) bool {
	if poolSize < s.cfg.StartingSize {
		return true
	}
	return usedCount*100/poolSize > s.cfg.ThresholdPercent
}

// replenish provisions a replacement stream in the background. The acquire
// that triggered it does not wait for, or learn about, the outcome.
func (s *poolService) replenish(params domain.StreamParams, poolSize int) {
	if params.Name == "" {
		params.Name = utils.PoolStreamName(poolSize + 1)
	}
	s.spawn(func() {
		ctx := context.Background()
		if _, err := s.api.Create(ctx, params); err != nil {
			s.logger.Warnw("background pool replenishment failed",
				"name", params.Name, "error", err)
			return
		}
		s.logger.Infow("pool replenished", "name", params.Name)
	})
}

func (s *poolService) create(ctx context.Context, params domain.StreamParams, poolSize int) (domain.StreamID, error) {
	if params.Name == "" {
		params.Name = utils.PoolStreamName(poolSize + 1)
	}
	stream, err := s.api.Create(ctx, params)
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", err
	}
	if stream.ID == "" {
		return "", apperrors.NewUnknownResponseError(200, "created stream carried no id")
	}
	s.logger.Infow("stream provisioned for pool", "stream_id", stream.ID, "name", params.Name)
	return stream.ID, nil
}

func (s *poolService) observe(poolSize, usedCount int) {
	if s.metrics != nil {
		s.metrics.ObservePool(poolSize, usedCount)
	}
}

func (s *poolService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.CountAcquire(outcome)
	}
}
