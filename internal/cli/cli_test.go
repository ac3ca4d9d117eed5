package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "migrate", "seed", "client", "worker"} {
		assert.True(t, names[want], want)
	}

	cmd, _, err := root.Find([]string{"client", "set-password"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("password"))
}

func TestSetPasswordRequiresFlag(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"client", "set-password", "3"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--password is required")
}

func TestMigrateCommandFlags(t *testing.T) {
	root := NewRootCommand()

	down, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "1", down.Flags().Lookup("steps").DefValue)
	assert.NotNil(t, down.Flags().Lookup("all"))

	version, _, err := root.Find([]string{"migrate", "version"})
	require.NoError(t, err)
	assert.Equal(t, "version", version.Name())

	assert.Equal(t, defaultStopTimeout, stopTimeout(down))
}

func TestStopTimeoutFlag(t *testing.T) {
	root := NewRootCommand()
	require.NoError(t, root.PersistentFlags().Set("stop-timeout", "3s"))
	assert.Equal(t, 3*time.Second, stopTimeout(root))

	require.NoError(t, root.PersistentFlags().Set("stop-timeout", "0s"))
	assert.Equal(t, defaultStopTimeout, stopTimeout(root))
}
