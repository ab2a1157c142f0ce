package watch

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"streampool/internal/core/domain"
	"streampool/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StateUpdate is one observation pushed to a watching client.
type StateUpdate struct {
	StreamID   domain.StreamID    `json:"stream_id"`
	State      domain.StreamState `json:"state,omitempty"`
	Error      string             `json:"error,omitempty"`
	ObservedAt time.Time          `json:"observed_at"`
}

// StateWatcher turns the poll-based state API into a push channel: a client
// opens a websocket for a stream and receives a message whenever the observed
// state changes. The watcher polls upstream on the same cadence the lifecycle
// poller uses, so watching adds at most one extra request per interval.
type StateWatcher struct {
	api          ports.StreamAPI
	pollInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.SugaredLogger
}

func NewStateWatcher(api ports.StreamAPI, pollInterval time.Duration, logger *zap.SugaredLogger) *StateWatcher {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &StateWatcher{
		api:          api,
		pollInterval: pollInterval,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// HandleWebSocket upgrades the request and streams state changes for the
// given stream until the client disconnects or an upstream failure ends the
// watch.
func (s *StateWatcher) HandleWebSocket(w http.ResponseWriter, r *http.Request, id domain.StreamID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read pump only exists to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Infow("state watch opened", "stream_id", id)

	var last domain.StreamState
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for first := true; ; first = false {
		if !first {
			select {
			case <-ctx.Done():
				s.logger.Infow("state watch closed", "stream_id", id)
				return
			case <-ticker.C:
			}
		}

		state, err := s.api.FetchState(ctx, id)
		if err != nil {
			s.write(conn, StateUpdate{StreamID: id, Error: err.Error(), ObservedAt: time.Now()})
			s.logger.Warnw("state watch ended on fetch failure", "stream_id", id, "error", err)
			return
		}
		if first || state != last {
			last = state
			if !s.write(conn, StateUpdate{StreamID: id, State: state, ObservedAt: time.Now()}) {
				return
			}
		}
	}
}

func (s *StateWatcher) write(conn *websocket.Conn, update StateUpdate) bool {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := conn.WriteJSON(update); err != nil {
		s.logger.Debugw("state watch write failed", "stream_id", update.StreamID, "error", err)
		return false
	}
	return true
}
