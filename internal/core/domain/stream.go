package domain

// StreamID is the durable key assigned by the remote service; it is used for
// all state queries after creation.
type StreamID string

// Stream is the identity triple assigned by the remote service on creation.
// It is immutable from the client's perspective.
type Stream struct {
	Name string
	ID   StreamID
	// ConnectionCode is a single-use code that lets an encoder bind to the
	// stream. It expires 24 hours after creation; the client only surfaces
	// it and does not enforce the expiry.
	ConnectionCode string
}

// StreamState is a service-reported lifecycle state. It is never cached
// locally: the service stops idle streams on its own, so a stored state can
// go stale at any moment.
type StreamState string

const (
	StateStarting  StreamState = "starting"
	StateStarted   StreamState = "started"
	StateStopping  StreamState = "stopping"
	StateStopped   StreamState = "stopped"
	StateResetting StreamState = "resetting"
)

// KnownStreamStates lists every state the service may legally report.
var KnownStreamStates = []StreamState{
	StateStarting, StateStarted, StateStopping, StateStopped, StateResetting,
}

// Valid reports whether s is one of the five known service states.
func (s StreamState) Valid() bool {
	for _, known := range KnownStreamStates {
		if s == known {
			return true
		}
	}
	return false
}

// ConnectionState is the derived signal computed from the stream's stats
// payload: "connected" == "Yes" means fine, anything else means not fine.
type ConnectionState string

const (
	ConnectionFine    ConnectionState = "fine"
	ConnectionNotFine ConnectionState = "not-fine"
)

// Transcoder is the encoder-facing connection configuration associated with
// a stream, fetched separately from stream metadata.
type Transcoder struct {
	DomainName      string
	SourcePort      int
	ApplicationName string
	StreamName      string
	Username        string
	Password        string
}
