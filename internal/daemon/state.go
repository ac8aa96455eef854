package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parley-dev/parley/internal/config"
)

const (
	StateFile = "state.json"
	PIDFile   = "parleyd.pid"
	LogDir    = "logs"
)

// DaemonState records where a running daemon listens and what it serves.
type DaemonState struct {
	Version int `json:"version"`
	Daemon  struct {
		PID       int       `json:"pid"`
		StartedAt time.Time `json:"started_at"`
		Address   string    `json:"address"`
	} `json:"daemon"`
	Store struct {
		Backend    string `json:"backend"`
		Collection string `json:"collection"`
		Persistent bool   `json:"persistent"`
	} `json:"store"`
}

// BaseURL returns the http URL of the recorded listener.
func (s *DaemonState) BaseURL() string {
	if s.Daemon.Address == "" {
		return ""
	}
	return "http://" + s.Daemon.Address
}

// StateManager handles persistence of daemon state and PID files.
type StateManager struct {
	parleyDir string
}

// NewStateManager creates a new StateManager for the given root directory.
func NewStateManager(root string) *StateManager {
	return &StateManager{
		parleyDir: filepath.Join(root, config.ParleyDir),
	}
}

// Dir returns the .parley directory path.
func (s *StateManager) Dir() string {
	return s.parleyDir
}

// PIDPath returns the path of the PID file.
func (s *StateManager) PIDPath() string {
	return filepath.Join(s.parleyDir, PIDFile)
}

// LogPath returns the file a background daemon writes its log to.
func (s *StateManager) LogPath() string {
	return filepath.Join(s.parleyDir, LogDir, "parleyd.log")
}

// ensureDir creates the .parley directory if it doesn't exist.
func (s *StateManager) ensureDir() error {
	return os.MkdirAll(s.parleyDir, 0755)
}

// SaveState persists the daemon state to disk.
func (s *StateManager) SaveState(state *DaemonState) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create .parley directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	statePath := filepath.Join(s.parleyDir, StateFile)
	if err := os.WriteFile(statePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// LoadState reads the daemon state from disk.
// Returns a default DaemonState with Version=1 if the file doesn't exist.
func (s *StateManager) LoadState() (*DaemonState, error) {
	statePath := filepath.Join(s.parleyDir, StateFile)

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &DaemonState{Version: 1}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	return &state, nil
}

// WritePID writes the daemon process ID to the PID file.
func (s *StateManager) WritePID(pid int) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create .parley directory: %w", err)
	}
	if err := WritePIDFile(s.PIDPath(), pid); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// ReadPID reads the daemon process ID from the PID file.
func (s *StateManager) ReadPID() (int, error) {
	return ReadPIDFile(s.PIDPath())
}

// RemovePID deletes the PID file.
// Does not return an error if the file doesn't exist.
func (s *StateManager) RemovePID() error {
	return RemovePIDFile(s.PIDPath())
}

// IsRunning checks if the daemon process is currently running.
// Returns (true, pid) if running, (false, pid) if not running but PID file exists,
// or (false, 0) if no PID file exists.
// Cleans up stale PID files when the process is not running.
func (s *StateManager) IsRunning() (bool, int) {
	pid, err := s.ReadPID()
	if err != nil {
		return false, 0
	}

	if !IsProcessRunning(pid) {
		_ = s.RemovePID()
		return false, pid
	}

	return true, pid
}

// RunningURL returns the base URL of the running daemon, or "" if none is
// running or it never recorded an address.
func (s *StateManager) RunningURL() string {
	running, pid := s.IsRunning()
	if !running {
		return ""
	}
	state, err := s.LoadState()
	if err != nil || state.Daemon.PID != pid {
		return ""
	}
	return state.BaseURL()
}
