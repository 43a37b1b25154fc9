package buildinfo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	CommitHash = "abc1234"
	t.Cleanup(func() { CommitHash = "" })

	info := Current()
	assert.Equal(t, "abc1234", info.Commit)
	_, err := time.Parse(time.RFC3339, info.StartedAt)
	require.NoError(t, err)
	_, err = time.ParseDuration(info.Uptime)
	assert.NoError(t, err)
}
