package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptional(t *testing.T) {
	d, err := ParseOptional("")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseOptional(" 1m30s ")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseOptional("soon")
	assert.Error(t, err)
	_, err = ParseOptional("-1s")
	assert.Error(t, err)
}

func TestParseDurationOrDefault(t *testing.T) {
	assert.Equal(t, time.Second, ParseDurationOrDefault("", time.Second))
	assert.Equal(t, time.Second, ParseDurationOrDefault("bad", time.Second))
	assert.Equal(t, time.Minute, ParseDurationOrDefault("1m", time.Second))
}
