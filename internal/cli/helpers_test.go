package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	select {
	case out := <-outputCh:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out reading captured stdout")
		return ""
	}
}

const testOutline = `items:
  - id: groceries
    text: Groceries
    tags: [home]
    created: 2024-03-01
    children:
      - id: milk
        text: Buy milk
        tags: [errand]
        todo: false
        created: 2024-03-02
      - id: eggs
        text: Buy eggs
        todo: true
        created: 2024-03-03
  - id: plan
    text: Project Plan
    tags: [work]
    created: 2024-05-10
`

// useOutline points the global flags at a fresh outline file and restores
// them when the test ends.
func useOutline(t *testing.T, asJSON bool) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "outline.yaml")
	if err := os.WriteFile(path, []byte(testOutline), 0o644); err != nil {
		t.Fatalf("write outline: %v", err)
	}

	prevOutline, prevJSON, prevCfg := outlineFlag, jsonOutput, cfg
	prevConfigPath, prevResolved := configPath, resolvedConfigPath
	t.Cleanup(func() {
		outlineFlag, jsonOutput, cfg = prevOutline, prevJSON, prevCfg
		configPath, resolvedConfigPath = prevConfigPath, prevResolved
	})

	outlineFlag = path
	jsonOutput = asJSON
	cfg = nil
	configPath = filepath.Join(dir, "config.toml")
	resolvedConfigPath = configPath
	return path
}

// setFlag sets a command flag for one test.
func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	f := cmd.Flags().Lookup(name)
	if f == nil {
		t.Fatalf("unknown flag %q", name)
	}
	prev := f.Value.String()
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("set %s: %v", name, err)
	}
	t.Cleanup(func() {
		_ = cmd.Flags().Set(name, prev)
		f.Changed = false
	})
}

type envelope struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *ErrorInfo      `json:"error"`
	Warnings []Warning       `json:"warnings"`
	Meta     *Meta           `json:"meta"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("expected JSON output, got parse error: %v; out=%s", err, out)
	}
	return resp
}
