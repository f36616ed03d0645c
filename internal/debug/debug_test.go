package debug

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDebugEnabled(t *testing.T) {
	t.Helper()
	old := EnableDebug
	EnableDebug = "true"
	t.Cleanup(func() { EnableDebug = old })
}

func TestDebugDisabledByDefault(t *testing.T) {
	old := EnableDebug
	EnableDebug = "false"
	t.Cleanup(func() { EnableDebug = old })
	t.Setenv("DEBUG", "")

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	t.Cleanup(func() { SetDebugOutput(nil) })

	Printf("should not appear %d\n", 42)
	Log("SEARCH", "nor this\n")
	assert.Empty(t, buf.String())
}

func TestDebugEnabledViaEnv(t *testing.T) {
	old := EnableDebug
	EnableDebug = "false"
	t.Cleanup(func() { EnableDebug = old })
	t.Setenv("DEBUG", "1")

	assert.True(t, IsDebugEnabled())
}

func TestEnableRuntime(t *testing.T) {
	old := EnableDebug
	EnableDebug = "false"
	t.Cleanup(func() {
		EnableDebug = old
		debugMutex.Lock()
		runtimeEnabled = false
		debugMutex.Unlock()
	})
	t.Setenv("DEBUG", "")

	assert.False(t, IsDebugEnabled())
	EnableRuntime()
	assert.True(t, IsDebugEnabled())
}

func TestPrintfWritesWhenEnabled(t *testing.T) {
	withDebugEnabled(t)

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	t.Cleanup(func() { SetDebugOutput(nil) })

	Printf("search %s started\n", "Find")
	assert.Equal(t, "[DEBUG] search Find started\n", buf.String())
}

func TestComponentLog(t *testing.T) {
	withDebugEnabled(t)

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	t.Cleanup(func() { SetDebugOutput(nil) })

	LogProtocol("sent request %d\n", 7)
	assert.Equal(t, "[DEBUG:PROTO] sent request 7\n", buf.String())
}

func TestNoWriterNoPanic(t *testing.T) {
	withDebugEnabled(t)
	SetDebugOutput(nil)

	// Must be safe with no writer configured
	Printf("dropped\n")
	LogSearch("dropped\n")
}

func TestInitDebugLogFile(t *testing.T) {
	withDebugEnabled(t)

	path, err := InitDebugLogFile()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = CloseDebugLog()
		_ = os.Remove(path)
	})

	Printf("to file\n")
	require.NoError(t, CloseDebugLog())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to file")
}
