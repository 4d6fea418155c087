package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ldi/daybook/internal/apperr"
)

type cli struct {
	t          *testing.T
	configPath string
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, configPath: testConfigPath(t)}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(append([]string{"-config", c.configPath}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

// add creates a task and returns the short id printed for it.
func (c *cli) add(args ...string) string {
	c.t.Helper()
	out := c.mustRun(append([]string{"add"}, args...)...)
	fields := strings.Fields(out)
	if len(fields) < 4 {
		c.t.Fatalf("unexpected add output: %q", out)
	}
	return strings.TrimSuffix(fields[3], ":")
}

func TestAddAndList(t *testing.T) {
	c := newCLI(t)
	c.add("-priority", "high", "-category", "Work", "Write", "report")
	c.add("-due", "today", "Buy milk")

	out := c.mustRun("list", "-view", "inbox", "-plain")
	if !strings.Contains(out, "Write report") || !strings.Contains(out, "high") || !strings.Contains(out, "Work") {
		t.Errorf("expected inbox row for new task, got: %s", out)
	}
	if strings.Contains(out, "Buy milk") {
		t.Errorf("dated task should not be in the inbox: %s", out)
	}

	out = c.mustRun("list")
	if !strings.Contains(out, "Today") || !strings.Contains(out, "Buy milk") {
		t.Errorf("expected today view with Buy milk, got: %s", out)
	}

	out = c.mustRun("list", "-view", "Work", "-q", "REPORT", "-plain")
	if !strings.Contains(out, "Write report") {
		t.Errorf("expected search hit in Work view, got: %s", out)
	}
}

func TestAddValidation(t *testing.T) {
	c := newCLI(t)

	if _, err := c.run("add"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for missing title, got %v", err)
	}
	if _, err := c.run("add", "-category", "Hobby", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unknown category, got %v", err)
	}
	if _, err := c.run("list", "-view", ""); err == nil {
		t.Error("expected error for empty view")
	}
}

func TestToggleAndDelete(t *testing.T) {
	c := newCLI(t)
	id := c.add("Call mum")

	out := c.mustRun("toggle", id)
	if !strings.Contains(out, "Completed Call mum") {
		t.Errorf("unexpected toggle output: %s", out)
	}
	out = c.mustRun("list", "-view", "completed", "-plain")
	if !strings.Contains(out, "Call mum") {
		t.Errorf("expected task in completed view, got: %s", out)
	}

	out = c.mustRun("toggle", id[:4])
	if !strings.Contains(out, "Reopened Call mum") {
		t.Errorf("expected prefix id to reopen, got: %s", out)
	}

	c.mustRun("delete", id)
	out = c.mustRun("list", "-view", "inbox", "-plain")
	if strings.Contains(out, "Call mum") {
		t.Errorf("deleted task still listed: %s", out)
	}

	if _, err := c.run("toggle", "nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, err := c.run("delete"); err == nil {
		t.Error("expected usage error without an id")
	}
}

func TestMutationsWriteSnapshot(t *testing.T) {
	c := newCLI(t)
	c.add("Snapshot me")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(c.configPath), "tasks.jsonl"))
	if err != nil {
		t.Fatalf("expected snapshot after add: %v", err)
	}
	if !strings.Contains(string(data), `"title":"Snapshot me"`) {
		t.Errorf("snapshot missing task: %s", data)
	}
}

func TestStats(t *testing.T) {
	c := newCLI(t)
	id := c.add("-category", "Gym", "Leg day")
	c.add("-category", "Gym", "Stretch")
	c.mustRun("toggle", id)

	out := c.mustRun("stats")
	for _, want := range []string{"Daybook User", "Overall", "(1/2)", "Categories", "Gym"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in stats output, got: %s", want, out)
		}
	}
}

func TestRemind(t *testing.T) {
	c := newCLI(t)
	id := c.add("-due", "2026-10-20", "Dentist")
	undated := c.add("Someday")

	out := c.mustRun("remind", id, "-time", "08:30")
	if !strings.Contains(out, "scheduled for 2026-10-20T08:30") {
		t.Errorf("unexpected remind output: %s", out)
	}

	out = c.mustRun("reminders")
	if !strings.Contains(out, "Reminder: Dentist") || !strings.Contains(out, "scheduled") {
		t.Errorf("expected reminder row, got: %s", out)
	}

	if _, err := c.run("remind", undated); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error without a date, got %v", err)
	}
	if _, err := c.run("remind", "-date", "2026-10-21", "-time", "25:00", undated); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for bad time, got %v", err)
	}
}

func TestExportImport(t *testing.T) {
	src := newCLI(t)
	src.add("-priority", "low", "Carry over")
	src.add("-category", "Travel", "Book hotel")

	path := filepath.Join(t.TempDir(), "export.jsonl")
	out := src.mustRun("export", path)
	if !strings.Contains(out, "Exported 2 tasks") {
		t.Errorf("unexpected export output: %s", out)
	}

	dst := newCLI(t)
	dst.add("Will be replaced")
	out = dst.mustRun("import", path)
	if !strings.Contains(out, "Imported 2 tasks") {
		t.Errorf("unexpected import output: %s", out)
	}

	out = dst.mustRun("list", "-view", "inbox", "-plain")
	if !strings.Contains(out, "Carry over") || !strings.Contains(out, "Book hotel") {
		t.Errorf("expected imported tasks, got: %s", out)
	}
	if strings.Contains(out, "Will be replaced") {
		t.Errorf("import should replace the collection: %s", out)
	}

	if _, err := dst.run("import", filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
