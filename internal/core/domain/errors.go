package domain

import "errors"

var (
	ErrEmptyStreamID = errors.New("stream id cannot be empty")
	ErrNilParams     = errors.New("stream params cannot be nil")
	ErrNoThumbnail   = errors.New("stream has no thumbnail yet")
	ErrPoolExhausted = errors.New("pool walk exhausted without a stopped stream")
)
