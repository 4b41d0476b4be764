package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args in an isolated HOME and returns
// its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("ROUTEMESH_CONFIG", "")
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "routerctl", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.SilenceUsage)

	for _, name := range []string{"config", "format", "verbose", "quiet"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"routes", "call", "open", "selftest", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "routerctl")
	assert.Contains(t, out, "selftest")
	assert.Contains(t, out, "--format")
}

func TestRootCmd_VerboseAndQuietExclusive(t *testing.T) {
	_, err := execute(t, "routes", "--verbose", "--quiet")
	assert.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	params, err := parseAssignments([]string{"a=10.5", "flag=true", "name=alice", "obj={\"k\":1}", "empty="})
	require.NoError(t, err)

	assert.Equal(t, 10.5, params["a"])
	assert.Equal(t, true, params["flag"])
	assert.Equal(t, "alice", params["name"])
	assert.Equal(t, map[string]any{"k": 1.0}, params["obj"])
	assert.Equal(t, "", params["empty"])

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
