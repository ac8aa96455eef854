// Package setup checks that the local Ollama install can serve Parley.
package setup

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/parley-dev/parley/internal/llm"
)

// Status represents the status of a dependency
type Status int

const (
	// StatusMissing indicates the dependency is not installed
	StatusMissing Status = iota
	// StatusInstalled indicates the dependency is installed but not running
	StatusInstalled
	// StatusRunning indicates the server answers but a model is missing
	StatusRunning
	// StatusReady indicates the server answers and every model is pulled
	StatusReady
)

// String returns a string representation of the status
func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusInstalled:
		return "installed"
	case StatusRunning:
		return "running"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ModelLister lists the models installed on an Ollama server.
type ModelLister interface {
	Models(ctx context.Context) ([]llm.ModelInfo, error)
}

// ModelStatus reports whether one required model is pulled.
type ModelStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	PullCmd   string `json:"pull_cmd,omitempty"`
}

// Report is the outcome of a Check.
type Report struct {
	Status      Status        `json:"status"`
	Binary      string        `json:"binary,omitempty"`
	Models      []ModelStatus `json:"models,omitempty"`
	InstallCmd  string        `json:"install_cmd,omitempty"`
	InstallHint string        `json:"install_hint,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Missing returns the models that still need to be pulled.
func (r *Report) Missing() []ModelStatus {
	var missing []ModelStatus
	for _, m := range r.Models {
		if !m.Available {
			missing = append(missing, m)
		}
	}
	return missing
}

// Detector checks for the Ollama binary, server and models
type Detector struct {
	server   ModelLister
	models   []string
	lookPath func(string) (string, error)
}

// NewDetector creates a detector that requires models to be installed on server.
func NewDetector(server ModelLister, models ...string) *Detector {
	return &Detector{
		server:   server,
		models:   models,
		lookPath: exec.LookPath,
	}
}

// getOllamaInstallCmd returns the platform-specific install command for Ollama
func getOllamaInstallCmd() string {
	switch runtime.GOOS {
	case "darwin":
		return "brew install ollama"
	case "linux":
		return "curl -fsSL https://ollama.com/install.sh | sh"
	default:
		return ""
	}
}

// Check reports how far the Ollama setup is from ready. A server that
// answers counts as installed even when no local binary is found, since
// it may run on another host.
func (d *Detector) Check(ctx context.Context) Report {
	report := Report{Status: StatusMissing}

	if path, err := d.lookPath("ollama"); err == nil {
		report.Status = StatusInstalled
		report.Binary = path
	}

	installed, err := d.server.Models(ctx)
	if err != nil {
		report.Error = err.Error()
		if report.Status == StatusMissing {
			report.InstallCmd = getOllamaInstallCmd()
			report.InstallHint = "Install Ollama from https://ollama.com"
		} else {
			report.InstallHint = "Start the server with 'ollama serve'"
		}
		return report
	}
	report.Status = StatusRunning

	names := make(map[string]bool, len(installed))
	for _, m := range installed {
		names[normalizeModel(m.Name)] = true
	}

	ready := true
	for _, model := range d.models {
		status := ModelStatus{Name: model, Available: names[normalizeModel(model)]}
		if !status.Available {
			status.PullCmd = "ollama pull " + model
			ready = false
		}
		report.Models = append(report.Models, status)
	}
	if ready {
		report.Status = StatusReady
	}
	return report
}

// normalizeModel treats "name" and "name:latest" as the same model.
func normalizeModel(name string) string {
	return strings.TrimSuffix(name, ":latest")
}
