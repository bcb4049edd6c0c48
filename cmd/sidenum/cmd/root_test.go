package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := GetRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return buf.String()
}

func TestRootShowsHelp(t *testing.T) {
	out := execute(t)
	assert.Contains(t, out, "sidenum")
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "recognize")
}

func TestConfigCommandPrintsEffectiveConfig(t *testing.T) {
	out := execute(t, "config")
	assert.Contains(t, out, "listen_addr")
	assert.Contains(t, out, "train_type")
}

func TestVersionFlag(t *testing.T) {
	out := execute(t, "--version")
	assert.Contains(t, out, "commit")
}
