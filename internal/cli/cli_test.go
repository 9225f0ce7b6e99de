package cli

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/runplan/internal/client"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/server"
)

// run executes the CLI with args against a config in a temp dir and returns stdout.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func sqliteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "storage:\n  driver: sqlite\n  sqlite_path: " + filepath.Join(dir, "plans.db") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestMileageLocal verifies local evaluation with the default model.
func TestMileageLocal(t *testing.T) {
	out, err := run(t, missingConfig(t), "mileage", "4")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Week 4: 18.00 miles (36.0% of target) [exponential]\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

// TestWeekLocal verifies found and unbounded lookups.
func TestWeekLocal(t *testing.T) {
	cfg := missingConfig(t)

	out, err := run(t, cfg, "week", "18")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "reached at week 4.00") {
		t.Errorf("found output = %q", out)
	}

	out, err = run(t, cfg, "week", "50")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "approached asymptotically") {
		t.Errorf("unbounded output = %q", out)
	}

	out, err = run(t, cfg, "--format", "json", "week", "70")
	if err != nil {
		t.Fatal(err)
	}
	var res client.WeekResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.IsAchievable || res.WeekNumber != nil {
		t.Errorf("no-solution result = %+v", res)
	}
}

// TestRateFlags verifies model flags override the config defaults.
func TestRateFlags(t *testing.T) {
	out, err := run(t, missingConfig(t), "--format", "json", "--model", "linear", "-a", "2", "-b", "1", "rate", "25")
	if err != nil {
		t.Fatal(err)
	}
	var res client.RateResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.RateOfChange != 0 || res.EquationType != "linear" || res.Parameters.A != 2 {
		t.Errorf("rate = %+v", res)
	}
}

// TestInvalidInputs verifies argument and model errors are returned.
func TestInvalidInputs(t *testing.T) {
	cfg := missingConfig(t)
	tests := [][]string{
		{"mileage", "abc"},
		{"mileage", "-1"},
		{"--model", "cubic", "mileage", "1"},
		{"-a", "1.5", "mileage", "1"},
		{"week"},
	}
	for _, args := range tests {
		if _, err := run(t, cfg, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

// TestTable verifies the plain table output.
func TestTable(t *testing.T) {
	out, err := run(t, missingConfig(t), "--plain", "--model", "linear", "-a", "2", "-b", "1", "table", "--weeks", "3")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"linear progression", "Week", "14.00", "2.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

// TestPlotAndCompare verifies both PNG commands write decodable images.
func TestPlotAndCompare(t *testing.T) {
	cfg := missingConfig(t)
	dir := t.TempDir()

	for _, args := range [][]string{
		{"plot", "-o", filepath.Join(dir, "p.png"), "--weeks", "10"},
		{"compare", "-o", filepath.Join(dir, "c.png")},
	} {
		if _, err := run(t, cfg, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		f, err := os.Open(args[2])
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", args[2], err)
		}
		if img.Bounds().Dx() != 1200 {
			t.Errorf("%s width = %d, want 1200", args[2], img.Bounds().Dx())
		}
	}
}

// TestPlansLocal verifies create and list against a local SQLite store.
func TestPlansLocal(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := run(t, cfg, "--model", "linear", "-a", "4", "-b", "2", "plans", "create", "--name", "base block")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "saved plan") {
		t.Errorf("create output = %q", out)
	}

	out, err = run(t, cfg, "--format", "json", "plans", "list")
	if err != nil {
		t.Fatal(err)
	}
	var plans []models.Plan
	if err := json.Unmarshal([]byte(out), &plans); err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 || plans[0].Name != "base block" || plans[0].Model != "linear" {
		t.Errorf("plans = %+v", plans)
	}

	if _, err := run(t, cfg, "plans", "create"); err == nil {
		t.Error("expected error without --name")
	}
	if _, err := run(t, cfg, "-a", "3", "plans", "create", "--name", "bad"); err == nil {
		t.Error("expected error for invalid exponential shape")
	}
}

// TestServerMode verifies calculations go through the HTTP client when --server is set.
func TestServerMode(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.Target = 60
	ts := httptest.NewServer(server.New(cfg, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer ts.Close()

	out, err := run(t, missingConfig(t), "--server", ts.URL, "--format", "json", "mileage", "0")
	if err != nil {
		t.Fatal(err)
	}
	var res client.MileageResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	// The server's target (60), not the local default (50), is used.
	if res.Parameters.Target != 60 || res.WeeklyMileage != 10 {
		t.Errorf("result = %+v", res)
	}
}

// TestModels verifies the model listing.
func TestModels(t *testing.T) {
	out, err := run(t, missingConfig(t), "--plain", "models")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "exponential") || !strings.Contains(out, "linear") {
		t.Errorf("models output = %q", out)
	}
}
