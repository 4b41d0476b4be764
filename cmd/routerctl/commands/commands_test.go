package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutesCmd(t *testing.T) {
	out, err := execute(t, "routes", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/calculate")
	assert.Contains(t, out, "/login")
	assert.Contains(t, out, "Modal")
	assert.Contains(t, out, "Total: 5 route(s)")
}

func TestRoutesCmd_JSON(t *testing.T) {
	out, err := execute(t, "routes", "--format", "json")
	require.NoError(t, err)

	var views []routeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 5)

	byPath := map[string]routeView{}
	for _, v := range views {
		byPath[v.Path] = v
	}
	assert.Equal(t, "AsyncAction", byPath["/weather"].Kind)
	assert.True(t, byPath["/weather"].Caching)
	assert.False(t, byPath["/profile"].SelfTest)
}

func TestCallCmd_Calculate(t *testing.T) {
	out, err := execute(t, "call", "/calculate", "a=10.5", "b=2.5", "operation=multiply", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "OK /calculate")
	assert.Contains(t, out, "26.25")
}

func TestCallCmd_JSON(t *testing.T) {
	out, err := execute(t, "call", "/calculate", "a=1", "b=2", "--format", "json")
	require.NoError(t, err)

	var view outcomeView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.Success)
	assert.Equal(t, 200, view.Code)
	assert.Equal(t, map[string]any{"result": 3.0}, view.Data)
}

func TestCallCmd_NotFound(t *testing.T) {
	out, err := execute(t, "call", "/calculat", "--format", "text")
	require.Error(t, err)

	assert.Contains(t, out, "FAILED /calculat")
	assert.Contains(t, out, "/calculate")
}

func TestCallCmd_MissingParameter(t *testing.T) {
	out, err := execute(t, "call", "/calculate", "a=1", "--format", "text")
	require.Error(t, err)
	assert.Contains(t, out, "FAILED")
}

func TestCallCmd_InvalidIntent(t *testing.T) {
	_, err := execute(t, "call", "/home", "--intent", "sideways")
	assert.Error(t, err)
}

func TestCallCmd_PresentationClosedWithResult(t *testing.T) {
	out, err := execute(t, "call", "/home", "--intent", "modal", "--dismiss-after", "10ms", "--close-with", `{"picked":"blue"}`, "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "OK /home")
	assert.Contains(t, out, `"picked":"blue"`)
}

func TestCallCmd_GuardedRouteAfterLogin(t *testing.T) {
	out, err := execute(t, "call", "/profile", "--dismiss-after", "10ms", "--close-with", `{"success":true}`, "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "OK /profile")
	assert.Contains(t, out, `"loggedIn":true`)
}

func TestCallCmd_GuardedRouteLoginAborted(t *testing.T) {
	out, err := execute(t, "call", "/profile", "--dismiss-after", "10ms", "--format", "text")
	require.Error(t, err)

	assert.Contains(t, out, "FAILED /profile")
}

func TestCallCmd_Timeout(t *testing.T) {
	_, err := execute(t, "call", "/home", "--dismiss-after=-1s", "--timeout", "50ms", "--format", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestOpenCmd(t *testing.T) {
	out, err := execute(t, "open", "routemesh://calculate?a=1&b=2&operation=add", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "OK routemesh://calculate")
	assert.Contains(t, out, `"result":3`)
}

func TestOpenCmd_WrongScheme(t *testing.T) {
	out, err := execute(t, "open", "other://calculate", "--format", "text")
	require.Error(t, err)
	assert.Contains(t, out, "FAILED")
}

func TestOpenCmd_ConfiguredScheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[router]\nscheme = \"demo\"\n"), 0o600))

	out, err := execute(t, "open", "demo://weather?city=oslo", "--config", path, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "oslo")
}

func TestSelfTestCmd(t *testing.T) {
	out, err := execute(t, "selftest", "--settle", "20ms", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "PASS")
	assert.NotContains(t, out, "FAIL ")
	assert.NotContains(t, out, "/profile")
	assert.Contains(t, out, "Passed: 4/4")
}

func TestSelfTestCmd_JSONWithPrefix(t *testing.T) {
	out, err := execute(t, "selftest", "--prefix", "/CALC", "--format", "json")
	require.NoError(t, err)

	var report selfTestReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 1)
	assert.Equal(t, "/calculate", report.Results[0].Path)
	assert.Equal(t, 1, report.Summary.Passed)
}
