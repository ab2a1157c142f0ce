package domain

import (
	"streampool/pkg/errors"
	"streampool/pkg/validation"
)

// Quality presets for default aspect ratios.
const (
	LowQuality360p    = 360
	MediumQuality720p = 720
	HighQuality1080p  = 1080
)

// StreamParams are the creation parameters submitted to the remote service.
// An instance must pass Validate before it is allowed anywhere near the
// transport; no partially-valid instance is ever submitted.
type StreamParams struct {
	Name                  string `json:"name"`
	AspectRatioWidth      int    `json:"aspect_ratio_width"`
	AspectRatioHeight     int    `json:"aspect_ratio_height"`
	BroadcastLocation     string `json:"broadcast_location"`
	Encoder               string `json:"encoder"`
	TranscoderType        string `json:"transcoder_type"`
	DisableAuthentication bool   `json:"disable_authentication"`
	// Recording must be set explicitly; the service rejects a missing value.
	Recording *bool `json:"recording"`
}

// DefaultStreamParams returns creation parameters with the service defaults:
// 1080p 16:9, eu_germany, transcoded, recording on. The name is left empty
// and must be set by the caller.
func DefaultStreamParams() StreamParams {
	return DefaultStreamParamsForQuality(HighQuality1080p)
}

// DefaultStreamParamsForQuality returns default parameters sized for the
// given quality preset (360, 720 or 1080 lines). Unknown presets fall back
// to 1080p.
func DefaultStreamParamsForQuality(quality int) StreamParams {
	recording := true
	p := StreamParams{
		AspectRatioWidth:      1920,
		AspectRatioHeight:     1080,
		BroadcastLocation:     "eu_germany",
		Encoder:               validation.SupportedEncoder,
		TranscoderType:        "transcoded",
		DisableAuthentication: false,
		Recording:             &recording,
	}
	switch quality {
	case LowQuality360p:
		p.AspectRatioWidth, p.AspectRatioHeight = 640, 360
	case MediumQuality720p:
		p.AspectRatioWidth, p.AspectRatioHeight = 1280, 720
	}
	return p
}

// Validate checks the parameters against the remote service's constraints.
// Checks run in a fixed order and the first violation determines the
// reported reason. The returned error is a VALIDATION_ERROR AppError.
func (p *StreamParams) Validate() error {
	if err := validation.ValidateStreamName(p.Name); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := validation.ValidateAspectRatio(p.AspectRatioWidth, p.AspectRatioHeight); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := validation.ValidateBroadcastLocation(p.BroadcastLocation); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := validation.ValidateEncoder(p.Encoder); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := validation.ValidateTranscoderType(p.TranscoderType, p.BroadcastLocation); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if p.Recording == nil {
		return errors.NewValidationError("recording must be set to true or false, it cannot be null")
	}
	return nil
}
