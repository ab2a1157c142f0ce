package ingest

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"streampool/internal/core/domain"
	"streampool/internal/core/ports"
	apperrors "streampool/pkg/errors"
)

// Client is the StreamAPI implementation backed by the remote ingest REST
// service. It is stateless: every call is one signed round trip and nothing
// is cached, because the service stops idle streams on its own schedule.
type Client struct {
	transport *transport
	logger    *zap.SugaredLogger
}

// NewClient builds a stream client from transport options. sink may be nil
// when remote diagnostics are disabled.
func NewClient(opts Options, sink ports.DiagnosticsSink, logger *zap.SugaredLogger) *Client {
	return &Client{
		transport: newTransport(opts, sink, logger),
		logger:    logger,
	}
}

var _ ports.StreamAPI = (*Client)(nil)

// Create validates params locally first so invalid requests never reach the
// network, then provisions the stream remotely.
func (c *Client) Create(ctx context.Context, params domain.StreamParams) (*domain.Stream, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	body := map[string]interface{}{"live_stream": params}
	result, err := c.transport.do(ctx, http.MethodPost, "live_streams", body)
	if err != nil {
		return nil, err
	}

	payload, err := streamPayload(result)
	if err != nil {
		return nil, err
	}
	stream := &domain.Stream{
		Name:           stringField(payload, "name"),
		ID:             domain.StreamID(stringField(payload, "id")),
		ConnectionCode: stringField(payload, "connection_code"),
	}
	if stream.ID == "" {
		return nil, apperrors.NewUnknownResponseError(http.StatusOK, "create response carried no stream id")
	}

	c.logger.Infow("stream created", "stream_id", stream.ID, "name", stream.Name)
	return stream, nil
}

// FetchState returns the service-reported lifecycle state. A state outside
// the known enum means the client and service disagree on the protocol, which
// is fatal rather than retriable.
func (c *Client) FetchState(ctx context.Context, id domain.StreamID) (domain.StreamState, error) {
	payload, err := c.fetchStreamPayload(ctx, id, "state")
	if err != nil {
		return "", err
	}
	state := domain.StreamState(stringField(payload, "state"))
	if !state.Valid() {
		return "", apperrors.NewInvalidRemoteStateError(string(state))
	}
	return state, nil
}

// FetchConnectionState maps the stats payload's connected value onto the
// fine/not-fine signal. Absent or unexpected values count as not fine.
func (c *Client) FetchConnectionState(ctx context.Context, id domain.StreamID) (domain.ConnectionState, error) {
	payload, err := c.fetchStreamPayload(ctx, id, "stats")
	if err != nil {
		return "", err
	}
	connected, _ := payload["connected"].(map[string]interface{})
	if stringField(connected, "value") == "Yes" {
		return domain.ConnectionFine, nil
	}
	return domain.ConnectionNotFine, nil
}

// FetchAllLiveStreams lists the ids of every stream on the account, in the
// order the service returns them.
func (c *Client) FetchAllLiveStreams(ctx context.Context) ([]domain.StreamID, error) {
	result, err := c.transport.do(ctx, http.MethodGet, "live_streams", nil)
	if err != nil {
		return nil, err
	}
	items, ok := result["live_streams"].([]interface{})
	if !ok {
		return nil, apperrors.NewUnknownResponseError(http.StatusOK, "list response carried no live_streams array")
	}

	ids := make([]domain.StreamID, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if id := stringField(entry, "id"); id != "" {
			ids = append(ids, domain.StreamID(id))
		}
	}
	return ids, nil
}

// FetchThumbnail returns the stream's thumbnail URL. The service reports "no
// thumbnail yet" as a null-ish value, which is a defined success variant
// rather than a failure.
func (c *Client) FetchThumbnail(ctx context.Context, id domain.StreamID) (string, bool, error) {
	payload, err := c.fetchStreamPayload(ctx, id, "thumbnail_url")
	if err != nil {
		return "", false, err
	}
	raw, present := payload["thumbnail_url"]
	if !present || raw == nil {
		return "", false, nil
	}
	url, _ := raw.(string)
	if url == "" || url == "null" {
		return "", false, nil
	}
	return url, true, nil
}

// FetchTranscoder returns the encoder-facing connection configuration. The
// transcoder shares the stream's id on the remote service.
func (c *Client) FetchTranscoder(ctx context.Context, id domain.StreamID) (*domain.Transcoder, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("stream id must not be empty")
	}
	result, err := c.transport.do(ctx, http.MethodGet, "transcoders/"+string(id), nil)
	if err != nil {
		return nil, err
	}
	payload, ok := result["transcoder"].(map[string]interface{})
	if !ok {
		return nil, apperrors.NewUnknownResponseError(http.StatusOK, "response carried no transcoder object")
	}
	return &domain.Transcoder{
		DomainName:      stringField(payload, "domain_name"),
		SourcePort:      intField(payload, "source_port"),
		ApplicationName: stringField(payload, "application_name"),
		StreamName:      stringField(payload, "stream_name"),
		Username:        stringField(payload, "username"),
		Password:        stringField(payload, "password"),
	}, nil
}

// Start issues the start transition and returns the immediate post-transition
// state without waiting for convergence.
func (c *Client) Start(ctx context.Context, id domain.StreamID) (domain.StreamState, error) {
	return c.transition(ctx, id, "start")
}

// Stop issues the stop transition and returns the immediate post-transition
// state without waiting for convergence.
func (c *Client) Stop(ctx context.Context, id domain.StreamID) (domain.StreamState, error) {
	return c.transition(ctx, id, "stop")
}

func (c *Client) transition(ctx context.Context, id domain.StreamID, verb string) (domain.StreamState, error) {
	if id == "" {
		return "", apperrors.NewValidationError("stream id must not be empty")
	}
	result, err := c.transport.do(ctx, http.MethodPut, fmt.Sprintf("live_streams/%s/%s", id, verb), nil)
	if err != nil {
		return "", err
	}
	payload, err := streamPayload(result)
	if err != nil {
		return "", err
	}
	state := domain.StreamState(stringField(payload, "state"))
	if !state.Valid() {
		return "", apperrors.NewInvalidRemoteStateError(string(state))
	}
	return state, nil
}

func (c *Client) fetchStreamPayload(ctx context.Context, id domain.StreamID, suffix string) (map[string]interface{}, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("stream id must not be empty")
	}
	result, err := c.transport.do(ctx, http.MethodGet, fmt.Sprintf("live_streams/%s/%s", id, suffix), nil)
	if err != nil {
		return nil, err
	}
	return streamPayload(result)
}

func streamPayload(result map[string]interface{}) (map[string]interface{}, error) {
	payload, ok := result["live_stream"].(map[string]interface{})
	if !ok {
		return nil, apperrors.NewUnknownResponseError(http.StatusOK, "response carried no live_stream object")
	}
	return payload, nil
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func intField(m map[string]interface{}, key string) int {
	if m == nil {
		return 0
	}
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}
