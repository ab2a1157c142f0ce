package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStreamName(t *testing.T) {
	assert.NoError(t, ValidateStreamName("My-Event_2024.v1"))
	assert.Error(t, ValidateStreamName(""))
	assert.Error(t, ValidateStreamName(strings.Repeat("a", 201)))
	assert.NoError(t, ValidateStreamName(strings.Repeat("a", 200)))
	assert.Error(t, ValidateStreamName("no spaces"))
	assert.Error(t, ValidateStreamName("emoji/slash"))
}

func TestValidateAspectRatio(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr string
	}{
		{"1080p", 1920, 1080, ""},
		{"720p", 1280, 720, ""},
		{"360p", 640, 360, ""},
		{"4:3", 640, 480, ""},
		{"width not multiple of 8", 1922, 1080, "aspect_ratio_width must be divisible by 8"},
		{"height not multiple of 8", 1000, 900, "aspect_ratio_height must be divisible by 8"},
		{"width too large", 3848, 2160, "aspect_ratio_width must be between 10 and 3840"},
		{"height too large", 3840, 2168, "aspect_ratio_height must be between 10 and 2160"},
		{"bad proportion", 1920, 960, "proportion 16:9 or 4:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAspectRatio(tt.width, tt.height)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBroadcastLocation(t *testing.T) {
	assert.NoError(t, ValidateBroadcastLocation("eu_germany"))
	assert.NoError(t, ValidateBroadcastLocation("us_central_iowa"))
	assert.Error(t, ValidateBroadcastLocation("moon_base_alpha"))
	assert.Error(t, ValidateBroadcastLocation(""))
}

func TestValidateTranscoderType(t *testing.T) {
	assert.NoError(t, ValidateTranscoderType("transcoded", "eu_germany"))
	assert.NoError(t, ValidateTranscoderType("passthrough", "us_central_iowa"))
	assert.ErrorContains(t, ValidateTranscoderType("passthrough", "eu_germany"), "passthrough is not available")
	assert.ErrorContains(t, ValidateTranscoderType("remuxed", "eu_germany"), "invalid transcoder_type")
}

func TestValidateEncoder(t *testing.T) {
	assert.NoError(t, ValidateEncoder("wowza_gocoder"))
	assert.Error(t, ValidateEncoder("obs"))
}
