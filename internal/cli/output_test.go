package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/parley-dev/parley/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Success("started %d", 1)
	p.Info("plain")
	p.Warn("careful")
	p.Error("broken")

	assert.Equal(t, "[OK] started 1\nplain\n", out.String())
	assert.Equal(t, "[WARN] careful\n[ERROR] broken\n", errOut.String())
}

func TestPrinterRender(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out)

	require.NoError(t, p.Render("no newline", nil))
	require.NoError(t, p.Render("", nil))
	assert.Equal(t, "no newline\n", out.String())

	boom := errors.New("boom")
	assert.ErrorIs(t, p.Render("ignored", boom), boom)
}

func TestPrinterTable(t *testing.T) {
	var out bytes.Buffer
	NewPrinter(&out, &out).Table([]string{"ACTION", "CALLS"}, [][]string{{"ask", "3"}})

	assert.Equal(t, "ACTION  CALLS\n------  -----\nask     3\n", out.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42))
	assert.Equal(t, "2m 5s", formatDuration(125))
	assert.Equal(t, "1h 1m", formatDuration(3661))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLogLevel("debug").String())
	assert.Equal(t, "WARN", ParseLogLevel("warn").String())
	assert.Equal(t, "INFO", ParseLogLevel("nonsense").String())
}

func TestPrintSetupReport(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	printSetupReport(p, &setup.Report{
		Status: setup.StatusRunning,
		Models: []setup.ModelStatus{
			{Name: "llama3.2:latest", Available: true},
			{Name: "all-minilm", PullCmd: "ollama pull all-minilm"},
		},
	})
	assert.Equal(t, "[WARN] Model all-minilm is not installed; run 'ollama pull all-minilm'\n", errOut.String())

	out.Reset()
	printSetupReport(p, &setup.Report{Status: setup.StatusReady})
	assert.Equal(t, "[OK] Ollama is ready\n", out.String())
}
