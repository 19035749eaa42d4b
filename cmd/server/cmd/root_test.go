package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := RootCmd()
	for _, name := range []string{"serve", "validate"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup(configFlag))
}

func TestValidateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drain:\n  batches_per_tick: 2\n"), 0o600))

	var out bytes.Buffer
	root := RootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "--config", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "batches_per_tick=2")
}

func TestValidateCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  batch_size: 0\n"), 0o600))

	root := RootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "--config", path})
	assert.Error(t, root.Execute())
}
