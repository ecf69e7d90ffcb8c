package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	TEST_WATCH_INTERVAL = "100ms"
	TEST_WATCH_TIMEOUT  = 30 * time.Second
)

type snapshot struct {
	Sequence int64 `json:"sequence"`
	Themes   []struct {
		Name   string `json:"name"`
		Habits []struct {
			Name          string   `json:"name"`
			CompleteDates []string `json:"complete_dates"`
		} `json:"habits"`
	} `json:"themes"`
}

func (s snapshot) completed(theme, habit, day string) bool {
	for _, t := range s.Themes {
		if t.Name != theme {
			continue
		}
		for _, h := range t.Habits {
			if h.Name != habit {
				continue
			}
			for _, d := range h.CompleteDates {
				if d == day {
					return true
				}
			}
		}
	}
	return false
}

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	binDir := os.Getenv("HABITTHEMES_BIN_DIR")
	if binDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			t.Fatalf("Failed to get cwd: %v", err)
		}
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)

	cliPath := filepath.Join(binDir, "habitthemes")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s; build it with 'go build -o bin/ ./cmd/habitthemes'", cliPath)
	}

	// Isolate config, database and logs in a temp home
	tempDir := t.TempDir()
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "XDG_CONFIG_HOME=") || strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "HABITTHEMES_") {
			continue
		}
		env = append(env, e)
	}
	env = append(env,
		fmt.Sprintf("XDG_CONFIG_HOME=%s", tempDir),
		fmt.Sprintf("HOME=%s", tempDir),
		"HABITTHEMES_TIMEZONE=UTC",
	)
	today := time.Now().UTC().Format("2006-01-02")

	// 2. Initialize and build some data
	runCmd(t, cliPath, env, "init")
	runCmd(t, cliPath, env, "theme", "add", "Health")
	runCmd(t, cliPath, env, "habit", "add", "Health", "Run")
	runCmd(t, cliPath, env, "theme", "add", "Work")
	runCmd(t, cliPath, env, "habit", "add", "Work", "Run")
	runCmd(t, cliPath, env, "mark", "Health", "Run")

	// 3. Completions stay with their theme
	snap := listJSON(t, cliPath, env)
	if !snap.completed("Health", "Run", today) {
		t.Errorf("Health/Run should be completed on %s", today)
	}
	if snap.completed("Work", "Run", today) {
		t.Error("completion leaked into Work/Run")
	}

	// 4. Duplicates and missing parents fail with exit code 1
	if out, err := tryCmd(cliPath, env, "theme", "add", "Health"); err == nil || !strings.Contains(out, "already exists") {
		t.Errorf("duplicate theme should fail, got err=%v output=%s", err, out)
	}
	if out, err := tryCmd(cliPath, env, "habit", "add", "Nope", "Run"); err == nil || !strings.Contains(out, "not found") {
		t.Errorf("habit under missing theme should fail, got err=%v output=%s", err, out)
	}

	// 5. A watcher sees writes made by other processes
	t.Log("Starting watcher...")
	ctx, cancel := context.WithTimeout(context.Background(), TEST_WATCH_TIMEOUT)
	defer cancel()
	watch := exec.CommandContext(ctx, cliPath, "watch", "--json", "--interval", TEST_WATCH_INTERVAL)
	watch.Env = env
	stdout, err := watch.StdoutPipe()
	if err != nil {
		t.Fatalf("Failed to attach to watcher: %v", err)
	}
	if err := watch.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer func() {
		_ = watch.Process.Kill()
		_ = watch.Wait()
	}()

	dec := json.NewDecoder(stdout)
	var first snapshot
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("Failed to read initial snapshot: %v", err)
	}
	if first.completed("Work", "Run", today) {
		t.Fatal("Work/Run should not be completed yet")
	}

	runCmd(t, cliPath, env, "toggle", "Work", "Run")

	for {
		var next snapshot
		if err := dec.Decode(&next); err != nil {
			t.Fatalf("Watcher stopped before seeing the toggle: %v", err)
		}
		if next.completed("Work", "Run", today) {
			break
		}
	}

	// 6. Destructive commands back up first
	runCmd(t, cliPath, env, "theme", "remove", "Work")
	out := runCmd(t, cliPath, env, "backup", "list")
	if !strings.Contains(out, "Available backups (1 total)") {
		t.Errorf("expected an automatic backup, got:\n%s", out)
	}

	// 7. Health checks pass
	runCmd(t, cliPath, env, "validate")
	runCmd(t, cliPath, env, "doctor")
}

func listJSON(t *testing.T, path string, env []string) snapshot {
	t.Helper()
	out := runCmd(t, path, env, "list", "--json")
	var snap snapshot
	if err := json.Unmarshal([]byte(out), &snap.Themes); err != nil {
		t.Fatalf("list --json output is not JSON: %v\nOutput: %s", err, out)
	}
	return snap
}

func tryCmd(path string, env []string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	out, err := tryCmd(path, env, args...)
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return out
}
