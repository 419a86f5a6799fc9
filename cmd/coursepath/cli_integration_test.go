package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the coursepath binary into a temp directory.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "coursepath"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "coursepath")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the module root by walking up from the test file's
// directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "go.mod not found")
		dir = parent
	}
}

// caseFile returns a document from testdata/plans/<name>.
func caseFile(t *testing.T, name, file string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "testdata", "plans", name, file)
}

type cliRun struct {
	stdout   string
	stderr   string
	exitCode int
}

// runCLI runs the binary in dir (so no stray config file is picked up).
func runCLI(t *testing.T, bin, dir string, args ...string) cliRun {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := cliRun{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}
	return res
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const cyclicCatalog = `{"courses": [
  {"topics": ["a"], "prerequisites": ["b"], "modules": [{"hours": 1}]},
  {"topics": ["b"], "prerequisites": ["a"], "modules": [{"hours": 1}]}
]}`

func TestCLI(t *testing.T) {
	bin := buildBinary(t)

	t.Run("plan prints the result object", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "plan",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"),
			"--progress", caseFile(t, "intro-loop", "progress.json"),
			"--targets", caseFile(t, "intro-loop", "targets.json"),
		)
		require.Equal(t, 0, r.exitCode, r.stderr)

		want, err := os.ReadFile(caseFile(t, "intro-loop", "golden.json"))
		require.NoError(t, err)
		assert.JSONEq(t, string(want), r.stdout)
		assert.Contains(t, r.stdout, "\n  \"plan\": [", "two-space indent")
	})

	t.Run("plan text format", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "plan", "--format", "text",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"),
			"--targets", caseFile(t, "intro-loop", "targets.json"),
		)
		require.Equal(t, 0, r.exitCode, r.stderr)
		assert.Contains(t, r.stdout, "c1-m1")
		assert.Contains(t, r.stdout, "Topics considered: 2")
	})

	t.Run("plan budget flag", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "plan", "--max-hours", "1",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"),
		)
		require.Equal(t, 0, r.exitCode, r.stderr)
		var res struct {
			Plan []json.RawMessage `json:"plan"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
		assert.Empty(t, res.Plan)
	})

	t.Run("errors go to stderr once", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		bad := writeFile(t, dir, "bad.json", `{"courses": "nope"}`)
		r := runCLI(t, bin, dir, "plan", "--catalog", bad)
		assert.Equal(t, 1, r.exitCode)
		assert.Empty(t, r.stdout)
		assert.Equal(t, 1, bytes.Count([]byte(r.stderr), []byte("Error:")), r.stderr)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "inspect", "--format", "xml",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		assert.Equal(t, 1, r.exitCode)
		assert.Contains(t, r.stderr, `invalid format "xml"`)
	})

	t.Run("record needs a database", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "plan", "--record",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		assert.Equal(t, 1, r.exitCode)
		assert.Contains(t, r.stderr, "no run store configured")
	})

	t.Run("inspect summary", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "inspect", "--top", "1",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		require.Equal(t, 0, r.exitCode, r.stderr)

		var res struct {
			Command string `json:"command"`
			Results struct {
				Topics    int      `json:"topics"`
				Uncovered []string `json:"uncovered"`
				TopTopics []struct {
					Topic string `json:"topic"`
				} `json:"top_topics"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
		assert.Equal(t, "inspect", res.Command)
		assert.Equal(t, 3, res.Results.Topics)
		assert.Equal(t, []string{"variable"}, res.Results.Uncovered)
		require.Len(t, res.Results.TopTopics, 1)
		assert.Equal(t, "array", res.Results.TopTopics[0].Topic)
	})

	t.Run("inspect cycles", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		catalog := writeFile(t, dir, "catalog.json", cyclicCatalog)
		r := runCLI(t, bin, dir, "inspect", "cycles", "--catalog", catalog, "--format", "text")
		require.Equal(t, 0, r.exitCode, r.stderr)
		assert.Equal(t, "a -> b -> a\n", r.stdout)
	})

	t.Run("inspect prereqs", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "inspect", "prereqs", "Loops",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		require.Equal(t, 0, r.exitCode, r.stderr)
		var res struct {
			Results struct {
				Root  string `json:"root"`
				Nodes []struct {
					Topic string `json:"topic"`
				} `json:"nodes"`
			} `json:"results"`
			TotalCount int `json:"total_count"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
		assert.Equal(t, "loop", res.Results.Root)
		assert.Equal(t, 2, res.TotalCount)
	})

	t.Run("inspect unknown topic", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "inspect", "dependents", "Recursion",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		assert.Equal(t, 1, r.exitCode)
		assert.Contains(t, r.stderr, `"Recursion" (recursion) not in catalog`)
	})

	t.Run("history round trip", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		db := filepath.Join(dir, "data", "runs.db")
		catalog := caseFile(t, "intro-loop", "catalog.json")

		r := runCLI(t, bin, dir, "plan", "--db", db, "--record", "--catalog", catalog)
		require.Equal(t, 0, r.exitCode, r.stderr)
		assert.Contains(t, r.stderr, "Recorded run ")

		r = runCLI(t, bin, dir, "history", "--db", db)
		require.Equal(t, 0, r.exitCode, r.stderr)
		var list struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
			TotalCount int `json:"total_count"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &list))
		require.Equal(t, 1, list.TotalCount)
		id := list.Results[0].ID

		r = runCLI(t, bin, dir, "history", "--db", db, "--catalog", catalog)
		require.Equal(t, 0, r.exitCode, r.stderr)
		assert.Contains(t, r.stdout, id)

		r = runCLI(t, bin, dir, "history", "show", id, "--db", db)
		require.Equal(t, 0, r.exitCode, r.stderr)
		var detail struct {
			Results struct {
				Steps []struct {
					ModuleID string `json:"module_id"`
				} `json:"steps"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &detail))
		assert.Len(t, detail.Results.Steps, 2)

		r = runCLI(t, bin, dir, "history", "delete", id, "--db", db)
		require.Equal(t, 0, r.exitCode, r.stderr)

		r = runCLI(t, bin, dir, "history", "show", id, "--db", db)
		assert.Equal(t, 1, r.exitCode)
		assert.Contains(t, r.stderr, "not found")
	})

	t.Run("history without database", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "history")
		assert.Equal(t, 1, r.exitCode)
		assert.Contains(t, r.stderr, "pass --db")
	})

	t.Run("config file supplies defaults", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, ".coursepath.yaml", "format: text\nlog_level: error\n")
		r := runCLI(t, bin, dir, "inspect", "cycles",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		require.Equal(t, 0, r.exitCode, r.stderr)
		assert.Equal(t, "No prerequisite cycles found.\n", r.stdout)

		r = runCLI(t, bin, dir, "inspect", "cycles", "--format", "json",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		require.Equal(t, 0, r.exitCode, r.stderr)
		assert.Contains(t, r.stdout, `"command": "inspect cycles"`)
	})

	t.Run("explicit config must exist", func(t *testing.T) {
		t.Parallel()
		r := runCLI(t, bin, t.TempDir(), "inspect", "--config", "missing.yaml",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"))
		assert.Equal(t, 1, r.exitCode)
		assert.Contains(t, r.stderr, "missing.yaml")
	})

	t.Run("batch", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		fresh := writeFile(t, dir, "fresh.json", `{"mastery": {}}`)
		loops := writeFile(t, dir, "loops.json", `{"mastery": {"Loops": 0.9}}`)
		r := runCLI(t, bin, dir, "batch",
			"--catalog", caseFile(t, "intro-loop", "catalog.json"),
			"--progress", fresh, "--progress", loops)
		require.Equal(t, 0, r.exitCode, r.stderr)

		var res struct {
			Results []struct {
				Progress string `json:"progress"`
				Result   struct {
					Plan []struct {
						ModuleID string `json:"module_id"`
					} `json:"plan"`
				} `json:"result"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
		require.Len(t, res.Results, 2)
		assert.Equal(t, fresh, res.Results[0].Progress)
		assert.Len(t, res.Results[0].Result.Plan, 2)
		require.Len(t, res.Results[1].Result.Plan, 1)
		assert.Equal(t, "c1-m2", res.Results[1].Result.Plan[0].ModuleID)
	})
}
