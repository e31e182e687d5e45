package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Contains(t, Names(), Default)
}

func TestLoad(t *testing.T) {
	withExt, err := Load(Default)
	require.NoError(t, err)
	assert.Contains(t, string(withExt), "startup_plan:")

	withoutExt, err := Load("equity-assistant")
	require.NoError(t, err)
	assert.Equal(t, withExt, withoutExt)

	_, err = Load("")
	assert.EqualError(t, err, "embedded config name is empty")

	_, err = Load("missing")
	assert.ErrorContains(t, err, "available: equity-assistant.yaml")
}
