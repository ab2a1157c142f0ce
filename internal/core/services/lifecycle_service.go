package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"streampool/internal/core/domain"
	"streampool/internal/core/ports"
	"streampool/pkg/config"
	apperrors "streampool/pkg/errors"
	"streampool/pkg/tracing"
)

// LifecycleMetrics receives convergence measurements. Implementations must
// not block.
type LifecycleMetrics interface {
	ObserveConvergence(verb string, outcome string, elapsed time.Duration)
}

// LifecycleConfig carries the poll-loop tuning knobs.
type LifecycleConfig struct {
	// DefaultStartTimeout applies when the caller passes a zero timeout.
	DefaultStartTimeout time.Duration
	// StopTimeout bounds the stop poll loop.
	StopTimeout time.Duration
	// PollInterval is the fixed delay between state checks.
	PollInterval time.Duration
}

// lifecycleService drives start and stop transitions to a terminal outcome.
// The remote service transitions streams asynchronously, so after issuing the
// transition request the service state is polled on a fixed interval until it
// reaches the target, the deadline passes, or an unexpected state appears.
type lifecycleService struct {
	api     ports.StreamAPI
	cfg     LifecycleConfig
	logger  *zap.SugaredLogger
	metrics LifecycleMetrics

	// minTimeout is the floor below which caller-supplied timeouts are
	// rejected. Tests lower it to exercise the timeout path quickly.
	minTimeout time.Duration
}

// NewLifecycleService builds the lifecycle poller. metrics may be nil.
func NewLifecycleService(api ports.StreamAPI, cfg LifecycleConfig, logger *zap.SugaredLogger, metrics LifecycleMetrics) ports.LifecycleService {
	if cfg.DefaultStartTimeout <= 0 {
		cfg.DefaultStartTimeout = 120 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 120 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &lifecycleService{
		api:        api,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		minTimeout: config.MinStartTimeout,
	}
}

// Start issues the start transition and polls until the stream reports
// started. Returns how long convergence took.
func (s *lifecycleService) Start(ctx context.Context, id domain.StreamID, timeout time.Duration) (time.Duration, error) {
	if timeout == 0 {
		timeout = s.cfg.DefaultStartTimeout
	}
	if timeout < s.minTimeout {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("start timeout %s is below the %s minimum", timeout, s.minTimeout))
	}
	return s.converge(ctx, id, "start", timeout, s.api.Start, domain.StateStarting, domain.StateStarted, false)
}

// Stop issues the stop transition and polls until the stream reports stopped,
// under the same protocol as Start. Unlike start, the transition response may
// already report the target state: an idle or fast-stopping stream completes
// the transition synchronously, and that is a success with no polling.
func (s *lifecycleService) Stop(ctx context.Context, id domain.StreamID) error {
	_, err := s.converge(ctx, id, "stop", s.cfg.StopTimeout, s.api.Stop, domain.StateStopping, domain.StateStopped, true)
	return err
}

// converge runs the shared transition protocol: the immediate post-transition
// state must be the transitional one, then the state is re-fetched on the
// poll interval until the target state is observed or the deadline passes.
// Checks are strictly sequential so at most one request is outstanding, and
// the deadline is re-evaluated on every iteration rather than armed once.
func (s *lifecycleService) converge(
	ctx context.Context,
	id domain.StreamID,
	verb string,
	timeout time.Duration,
	transition func(context.Context, domain.StreamID) (domain.StreamState, error),
	transitional, target domain.StreamState,
	immediateTargetOK bool,
) (time.Duration, error) {
	if id == "" {
		return 0, apperrors.NewValidationError("stream id must not be empty")
	}

	ctx, span := tracing.StartSpan(ctx, "lifecycle."+verb)
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.StreamIDKey.String(string(id)))

	began := time.Now()
	deadline := began.Add(timeout)

	state, err := transition(ctx, id)
	if err != nil {
		s.observe(verb, "failed", time.Since(began))
		tracing.RecordError(ctx, err)
		return 0, err
	}
	if state == target && immediateTargetOK {
		elapsed := time.Since(began)
		s.observe(verb, "succeeded", elapsed)
		s.logger.Infow("stream transition completed synchronously",
			"stream_id", id, "verb", verb, "elapsed", elapsed)
		return elapsed, nil
	}
	if state != transitional {
		err := apperrors.NewAppError(apperrors.ErrCodeInvalidRemoteState,
			fmt.Sprintf("%s was rejected, stream reported %q instead of %q", verb, state, transitional),
			http.StatusBadGateway).WithContext("state", string(state))
		s.observe(verb, "rejected", time.Since(began))
		tracing.RecordError(ctx, err)
		return 0, err
	}

	timer := time.NewTimer(s.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Caller cancellation surfaces as the bare context error.
			s.observe(verb, "canceled", time.Since(began))
			return 0, ctx.Err()
		case <-timer.C:
		}

		state, err := s.api.FetchState(ctx, id)
		if err != nil {
			s.observe(verb, "failed", time.Since(began))
			tracing.RecordError(ctx, err)
			return 0, err
		}

		switch state {
		case target:
			elapsed := time.Since(began)
			s.observe(verb, "succeeded", elapsed)
			s.logger.Infow("stream transition converged",
				"stream_id", id, "verb", verb, "elapsed", elapsed)
			return elapsed, nil
		case transitional:
			if time.Now().After(deadline) {
				elapsed := time.Since(began)
				err := apperrors.NewTimeoutError(
					fmt.Sprintf("stream did not reach %q within %s", target, timeout)).
					WithContext("elapsed", elapsed.String())
				s.observe(verb, "timed_out", elapsed)
				tracing.RecordError(ctx, err)
				return 0, err
			}
			timer.Reset(s.cfg.PollInterval)
		default:
			err := apperrors.NewAppError(apperrors.ErrCodeInvalidRemoteState,
				fmt.Sprintf("stream entered unexpected state %q while waiting for %q", state, target),
				http.StatusBadGateway).WithContext("state", string(state))
			s.observe(verb, "diverged", time.Since(began))
			tracing.RecordError(ctx, err)
			return 0, err
		}
	}
}

func (s *lifecycleService) observe(verb, outcome string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveConvergence(verb, outcome, elapsed)
	}
}
