package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_Defaults(t *testing.T) {
	// Without ldflags the dev defaults apply
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "dev", Commit)
	assert.Equal(t, "unknown", BuildTime)
}

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, BuildTime, info.BuildTime)
}

func TestGet_JSONFields(t *testing.T) {
	data, err := json.Marshal(Get())
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "commit")
	assert.Contains(t, decoded, "build_time")
}
