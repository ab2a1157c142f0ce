package ports

import (
	"context"
	"time"

	"streampool/internal/core/domain"
)

// StreamAPI is the client surface over the remote video-ingest REST API.
// Every call performs a signed HTTP round trip; nothing is cached.
type StreamAPI interface {
	// Create validates params and provisions a new live stream. The
	// returned identity triple is assigned by the remote service.
	Create(ctx context.Context, params domain.StreamParams) (*domain.Stream, error)

	// FetchState returns the service-reported lifecycle state. A state
	// string outside the known enum is a fatal INVALID_REMOTE_STATE.
	FetchState(ctx context.Context, id domain.StreamID) (domain.StreamState, error)

	// FetchConnectionState derives the fine/not-fine signal from the
	// stream's stats payload.
	FetchConnectionState(ctx context.Context, id domain.StreamID) (domain.ConnectionState, error)

	// FetchAllLiveStreams lists every stream id known to the account.
	FetchAllLiveStreams(ctx context.Context) ([]domain.StreamID, error)

	// FetchThumbnail returns the thumbnail URL. found is false when the
	// service reports no thumbnail yet, which is a success, not a failure.
	FetchThumbnail(ctx context.Context, id domain.StreamID) (url string, found bool, err error)

	// FetchTranscoder returns the encoder-facing connection configuration.
	FetchTranscoder(ctx context.Context, id domain.StreamID) (*domain.Transcoder, error)

	// Start issues the start transition and returns the immediate
	// post-transition state. It does not wait for convergence.
	Start(ctx context.Context, id domain.StreamID) (domain.StreamState, error)

	// Stop issues the stop transition and returns the immediate
	// post-transition state. It does not wait for convergence.
	Stop(ctx context.Context, id domain.StreamID) (domain.StreamState, error)
}

// LifecycleService drives start/stop transitions to a terminal outcome by
// polling the stream state under a wall-clock deadline.
type LifecycleService interface {
	// Start transitions the stream to started. timeout zero means the
	// configured default; values below the configured floor are rejected
	// with a CONFIGURATION_ERROR. Returns the elapsed convergence time.
	Start(ctx context.Context, id domain.StreamID, timeout time.Duration) (time.Duration, error)

	// Stop transitions the stream to stopped under the same poll protocol.
	Stop(ctx context.Context, id domain.StreamID) error
}

// PoolService hands out idle streams from the account's pool, provisioning
// replacements according to the configured sizing policy.
type PoolService interface {
	// Acquire returns the id of a stopped stream, creating one when the
	// pool has none. params nil means the configured defaults.
	Acquire(ctx context.Context, params *domain.StreamParams) (domain.StreamID, error)
}

// DiagnosticsSink receives diagnostic lines and flushes them to a remote
// store on demand. Implementations must never block the caller.
type DiagnosticsSink interface {
	Record(line string)
	// FlushAsync pushes the recorded lines to the remote store in the
	// background; failures are logged, never surfaced.
	FlushAsync()
}
