package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "streampool/pkg/errors"
)

func validParams() StreamParams {
	p := DefaultStreamParams()
	p.Name = "Event-2024"
	return p
}

func TestDefaultStreamParams(t *testing.T) {
	p := DefaultStreamParams()
	assert.Equal(t, 1920, p.AspectRatioWidth)
	assert.Equal(t, 1080, p.AspectRatioHeight)
	assert.Equal(t, "eu_germany", p.BroadcastLocation)
	assert.Equal(t, "wowza_gocoder", p.Encoder)
	assert.Equal(t, "transcoded", p.TranscoderType)
	require.NotNil(t, p.Recording)
	assert.True(t, *p.Recording)
}

func TestDefaultStreamParamsForQuality(t *testing.T) {
	p := DefaultStreamParamsForQuality(LowQuality360p)
	assert.Equal(t, 640, p.AspectRatioWidth)
	assert.Equal(t, 360, p.AspectRatioHeight)

	p = DefaultStreamParamsForQuality(MediumQuality720p)
	assert.Equal(t, 1280, p.AspectRatioWidth)
	assert.Equal(t, 720, p.AspectRatioHeight)

	// Unknown preset falls back to 1080p.
	p = DefaultStreamParamsForQuality(42)
	assert.Equal(t, 1920, p.AspectRatioWidth)
}

func TestValidate_ReportsFirstViolation(t *testing.T) {
	p := validParams()
	p.Name = ""
	p.AspectRatioWidth = 7 // also invalid, but name is checked first
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestValidate_AspectRatio(t *testing.T) {
	p := validParams()
	p.AspectRatioWidth, p.AspectRatioHeight = 1000, 900
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "divisible by 8")

	p.AspectRatioWidth, p.AspectRatioHeight = 1920, 960
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16:9 or 4:3")
}

func TestValidate_PassthroughLocationCompatibility(t *testing.T) {
	p := validParams()
	p.TranscoderType = "passthrough"
	p.BroadcastLocation = "eu_germany"
	assert.Error(t, p.Validate())

	p.BroadcastLocation = "us_central_iowa"
	assert.NoError(t, p.Validate())
}

func TestValidate_RecordingRequired(t *testing.T) {
	p := validParams()
	p.Recording = nil
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording")
}

func TestStreamState_Valid(t *testing.T) {
	for _, s := range KnownStreamStates {
		assert.True(t, s.Valid())
	}
	assert.False(t, StreamState("paused").Valid())
	assert.False(t, StreamState("").Valid())
}
