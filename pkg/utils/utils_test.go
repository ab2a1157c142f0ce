package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"streampool/pkg/validation"
)

func TestPoolStreamName(t *testing.T) {
	assert.Equal(t, "Stream-4", PoolStreamName(4))
	assert.NoError(t, validation.ValidateStreamName(PoolStreamName(1)))
}

func TestGenerateStreamName_IsServiceLegal(t *testing.T) {
	name := GenerateStreamName("event one")
	assert.NoError(t, validation.ValidateStreamName(name))

	other := GenerateStreamName("event one")
	assert.NotEqual(t, name, other)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "6.00s", FormatDuration(6*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(2*time.Minute+5*time.Second))
}
