package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// State Persistence Tests
// =============================================================================

func TestSaveState_WritesStateJSON(t *testing.T) {
	tmpDir := t.TempDir()
	sm := NewStateManager(tmpDir)

	state := &DaemonState{Version: 1}
	state.Daemon.PID = 12345
	state.Daemon.StartedAt = time.Now()
	state.Daemon.Address = "127.0.0.1:7433"

	require.NoError(t, sm.SaveState(state))

	_, err := os.Stat(filepath.Join(tmpDir, ".parley", StateFile))
	assert.NoError(t, err, "state.json should exist after SaveState")
}

func TestLoadState_ReadsStateJSON(t *testing.T) {
	tmpDir := t.TempDir()
	parleyDir := filepath.Join(tmpDir, ".parley")
	require.NoError(t, os.MkdirAll(parleyDir, 0755))

	expected := &DaemonState{Version: 1}
	expected.Daemon.PID = 54321
	expected.Daemon.StartedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	expected.Daemon.Address = "127.0.0.1:8080"
	expected.Store.Backend = "sqlite-vec"
	expected.Store.Collection = "chatbot_data"

	data, err := json.MarshalIndent(expected, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(parleyDir, StateFile), data, 0644))

	loaded, err := NewStateManager(tmpDir).LoadState()
	require.NoError(t, err)

	assert.Equal(t, expected.Daemon.PID, loaded.Daemon.PID)
	assert.True(t, expected.Daemon.StartedAt.Equal(loaded.Daemon.StartedAt))
	assert.Equal(t, "http://127.0.0.1:8080", loaded.BaseURL())
	assert.Equal(t, "chatbot_data", loaded.Store.Collection)
}

func TestLoadState_MissingFileReturnsDefault(t *testing.T) {
	state, err := NewStateManager(t.TempDir()).LoadState()
	require.NoError(t, err)
	assert.Equal(t, 1, state.Version)
	assert.Equal(t, "", state.BaseURL())
}

func TestLoadState_CorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	parleyDir := filepath.Join(tmpDir, ".parley")
	require.NoError(t, os.MkdirAll(parleyDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parleyDir, StateFile), []byte("{not json"), 0644))

	_, err := NewStateManager(tmpDir).LoadState()
	assert.Error(t, err)
}

// =============================================================================
// PID Tests
// =============================================================================

func TestWritePID_CreatesDirectoryAndFile(t *testing.T) {
	tmpDir := t.TempDir()
	sm := NewStateManager(tmpDir)

	require.NoError(t, sm.WritePID(777))

	assert.Equal(t, filepath.Join(tmpDir, ".parley", PIDFile), sm.PIDPath())
	pid, err := sm.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 777, pid)
}

func TestIsRunning_CurrentProcess(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	require.NoError(t, sm.WritePID(os.Getpid()))

	running, pid := sm.IsRunning()
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestIsRunning_NoPIDFile(t *testing.T) {
	running, pid := NewStateManager(t.TempDir()).IsRunning()
	assert.False(t, running)
	assert.Equal(t, 0, pid)
}

func TestIsRunning_StalePIDIsRemoved(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	require.NoError(t, sm.WritePID(99999999))

	running, pid := sm.IsRunning()
	assert.False(t, running)
	assert.Equal(t, 99999999, pid)

	_, err := os.Stat(sm.PIDPath())
	assert.True(t, os.IsNotExist(err), "stale PID file should be removed")
}

func TestRunningURL(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	assert.Equal(t, "", sm.RunningURL())

	require.NoError(t, sm.WritePID(os.Getpid()))
	state := &DaemonState{Version: 1}
	state.Daemon.PID = os.Getpid()
	state.Daemon.Address = "127.0.0.1:51234"
	require.NoError(t, sm.SaveState(state))

	assert.Equal(t, "http://127.0.0.1:51234", sm.RunningURL())

	state.Daemon.PID = os.Getpid() + 1
	require.NoError(t, sm.SaveState(state))
	assert.Equal(t, "", sm.RunningURL(), "state from another process is ignored")
}
