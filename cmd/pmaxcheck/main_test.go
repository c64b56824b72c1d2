package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotTemplate = `{
  "array_id": "000197900123",
  "health": {"health": {"health_score": {"value": %d, "description": %q}}},
  "srp": {"total_capacity_gb": 1000, "used_capacity_gb": %g, "subscribed_capacity_gb": 500},
  "alerts": [{"alertId": "1"}, {"alertId": "2"}]
}`

// setup writes a config pointing at a snapshot file and returns the config path.
func setup(t *testing.T, score int, description string, used float64) string {
	t.Helper()
	dir := t.TempDir()

	snap := filepath.Join(dir, "snapshot.json")
	require.NoError(t, os.WriteFile(snap, []byte(fmt.Sprintf(snapshotTemplate, score, description, used)), 0o644))

	cfg := fmt.Sprintf(`source:
  type: file
  snapshot: %s
logging:
  path: %s
  level: warn
  file: pmaxcheck.log
general:
  output_path: %s
`, snap, filepath.Join(dir, "logs"), filepath.Join(dir, "output"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheck_ExitCodes(t *testing.T) {
	tests := []struct {
		name        string
		score       int
		description string
		used        float64
		want        int
	}{
		{"ok", 100, "OK", 100, 0},
		{"warning health", 85, "WARNING", 100, 1},
		{"warning capacity", 100, "OK", 750, 1},
		{"critical capacity", 100, "OK", 900, 2},
		{"critical health", 50, "BAD", 100, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setup(t, tt.score, tt.description, tt.used)
			code, _, stderr := runCLI(t, "--config", cfg)
			assert.Equal(t, tt.want, code, stderr)
		})
	}
}

func TestCheck_TextOutput(t *testing.T) {
	cfg := setup(t, 100, "OK", 900)
	code, stdout, _ := runCLI(t, "check", "--config", cfg)

	assert.Equal(t, 2, code)
	assert.Contains(t, stdout, "Array ID: 000197900123")
	assert.Contains(t, stdout, "  - Used capacity at 90.00% (threshold: 85%)")
	assert.Contains(t, stdout, "Recent Alerts (last 24 hours): 2")
}

func TestCheck_JSONOutput(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	code, stdout, _ := runCLI(t, "--config", cfg, "--json", "--array-id", "override")
	require.Equal(t, 0, code)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "override", out["array_id"])
	assert.Equal(t, float64(2), out["recent_alerts"])
}

func TestCheck_FlagThresholds(t *testing.T) {
	cfg := setup(t, 100, "OK", 500)
	code, _, _ := runCLI(t, "--config", cfg, "--used-warning", "40", "--used-critical", "45")
	assert.Equal(t, 2, code)
}

func TestCheck_MissingSnapshotIsUnknown(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	code, stdout, stderr := runCLI(t, "--config", cfg, "--snapshot", filepath.Join(t.TempDir(), "missing.json"), "-o", "tsv")

	assert.Equal(t, 3, code)
	assert.Contains(t, stdout, "capacity\t-\t0.0000\tUNKNOWN\tNo SRP data available")
	assert.Contains(t, stderr, "Source unavailable")
}

func TestCheck_InvalidConfig(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)

	code, _, stderr := runCLI(t, "--config", cfg, "--used-warning", "90", "--used-critical", "80")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "invalid configuration")

	code, _, stderr = runCLI(t, "--config", cfg, "-o", "xml")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "unknown output format")

	code, _, stderr = runCLI(t, "--config", cfg, "--source", "rest")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "unisphere.host")
}

func TestCheck_Textfile(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	prom := filepath.Join(t.TempDir(), "pmax.prom")

	code, _, _ := runCLI(t, "--config", cfg, "--textfile", prom, "--dump-raw", "--timing")
	require.Equal(t, 0, code)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pmax_recent_alerts")
}

func TestCheck_Diagnostics(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	_, _, stderr := runCLI(t, "--config", cfg, "--dump-raw", "--timing", "--trace")

	assert.Contains(t, stderr, "Raw Collection Dump")
	assert.Contains(t, stderr, "Fetch Timing Report (file)")
	assert.Contains(t, stderr, "[TRACE")
}

func TestCheck_CommandSource(t *testing.T) {
	dir := t.TempDir()
	doc := `{"array_id":"000197900123","health":{"health":{"health_score":{"value":100,"description":"OK"}}},"srp":{"total_capacity_gb":100,"used_capacity_gb":10,"subscribed_capacity_gb":10}}`
	cmdFile := filepath.Join(dir, "snap.json")
	require.NoError(t, os.WriteFile(cmdFile, []byte(doc), 0o644))

	cfg := fmt.Sprintf(`source:
  type: command
  command: cat %s
  output_file: cached.json
logging:
  path: %s
  file: ""
general:
  output_path: %s
`, cmdFile, dir, filepath.Join(dir, "output"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	t.Setenv("SHELL", "/bin/sh")
	code, _, stderr := runCLI(t, "--config", path)
	assert.Equal(t, 0, code, stderr)

	_, err := os.Stat(filepath.Join(dir, "output", "cached.json"))
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "pmaxcheck dev"))
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`unisphere:
  host: unisphere.example.com
  username: monitor
  password: hunter2
array_id: "000197900123"
logging:
  path: `+dir+`
`), 0o644))

	code, stdout, _ := runCLI(t, "config", "show", "--config", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "host: unisphere.example.com")
	assert.Contains(t, stdout, "********")
	assert.NotContains(t, stdout, "hunter2")
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "frobnicate")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestBench(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	code, stdout, stderr := runCLI(t, "bench", "--config", cfg, "--iterations", "3", "--warmup", "0")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Fetch Benchmark (file)")
	assert.Contains(t, stdout, "capacity")
}

func TestCrossCheck(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "snapshot.json")
	require.NoError(t, os.WriteFile(snap, []byte(fmt.Sprintf(snapshotTemplate, 100, "OK", 500.0)), 0o644))
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(other, []byte(fmt.Sprintf(snapshotTemplate, 100, "OK", 600.0)), 0o644))

	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(`source:
  type: file
  snapshot: %s
  command: cat %s
logging:
  path: %s
  file: ""
general:
  output_path: %s
`, snap, other, dir, filepath.Join(dir, "output"))), 0o644))

	t.Setenv("SHELL", "/bin/sh")
	code, stdout, stderr := runCLI(t, "crosscheck", "--config", cfg, "--json")
	require.Equal(t, 2, code, stderr)

	var res struct {
		Validations []struct {
			Metric string `json:"metric"`
			Status string `json:"status"`
		} `json:"validations"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	statuses := map[string]string{}
	for _, v := range res.Validations {
		statuses[v.Metric] = v.Status
	}
	assert.Equal(t, "valid", statuses["Health Score"])
	assert.Equal(t, "valid", statuses["Total Capacity GB"])
	assert.Equal(t, "conflict", statuses["Used Capacity GB"])
}

func TestCrossCheck_SingleSource(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	code, _, stderr := runCLI(t, "crosscheck", "--config", cfg)
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "at least two configured sources")
}

func TestCheck_OversubscribedThresholds(t *testing.T) {
	cfg := setup(t, 100, "OK", 100)
	code, _, stderr := runCLI(t, "--config", cfg, "--subscribed-warning", "150", "--subscribed-critical", "200")
	assert.Equal(t, 0, code, stderr)
	assert.NotContains(t, stderr, "invalid configuration")
}
