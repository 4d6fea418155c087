package db

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	embedsql "github.com/ldi/daybook/embed/sql"
	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/pkg/models"
)

const taskSchemaURL = "task.schema.json"

var (
	taskSchemaOnce sync.Once
	taskSchema     *jsonschema.Schema
	taskSchemaErr  error
)

func compiledTaskSchema() (*jsonschema.Schema, error) {
	taskSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(taskSchemaURL, strings.NewReader(embedsql.TaskSchema)); err != nil {
			taskSchemaErr = fmt.Errorf("add task schema: %w", err)
			return
		}
		taskSchema, taskSchemaErr = compiler.Compile(taskSchemaURL)
	})
	return taskSchema, taskSchemaErr
}

// SnapshotError points at the snapshot line that failed validation.
type SnapshotError struct {
	Line    int
	Path    string
	Message string
}

func (e *SnapshotError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("snapshot line %d: %s: %s", e.Line, e.Path, e.Message)
}

func schemaError(line int, err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &SnapshotError{Line: line, Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &SnapshotError{Line: line, Path: ve.InstanceLocation, Message: ve.Message}
}

// EnableAutoSnapshot exports a snapshot to path after every successful
// write. Export failures are ignored so they never fail the write itself.
func (db *DB) EnableAutoSnapshot(path string) {
	db.SetOnChange(func(ctx context.Context) {
		_ = db.ExportSnapshot(ctx, path)
	})
}

// ExportSnapshot writes the task collection to path as JSON Lines, one task
// per line in canonical order. The file is replaced atomically.
func (db *DB) ExportSnapshot(ctx context.Context, path string) error {
	tasks, err := db.LoadTasks(ctx)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	w := bufio.NewWriter(tempFile)
	enc := json.NewEncoder(w)
	for _, t := range tasks {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("failed to write snapshot line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// checkTask catches what the schema cannot express: blank titles, due dates
// that are not real calendar days, and completion without a timestamp.
// Unknown categories are allowed through.
func checkTask(line int, t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &SnapshotError{Line: line, Path: "/title", Message: "title is blank"}
	}
	if t.DueDate != "" {
		if _, ok := calendar.DateKey(t.DueDate, time.UTC); !ok {
			return &SnapshotError{Line: line, Path: "/dueDate", Message: "not a date: " + t.DueDate}
		}
	}
	if t.Completed && t.CompletedDate == nil {
		return &SnapshotError{Line: line, Path: "/completedDate", Message: "completed task has no completedDate"}
	}
	return nil
}

// ImportSnapshot replaces the task collection with the tasks in a JSONL
// snapshot. Every line is validated first; one bad line aborts the import
// and leaves the stored collection untouched.
func (db *DB) ImportSnapshot(ctx context.Context, path string) (int, error) {
	schema, err := compiledTaskSchema()
	if err != nil {
		return 0, err
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	tasks := []models.Task{}
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var doc any
		if err := json.Unmarshal(line, &doc); err != nil {
			return 0, &SnapshotError{Line: lineNo, Message: err.Error()}
		}
		if err := schema.Validate(doc); err != nil {
			return 0, schemaError(lineNo, err)
		}

		var t models.Task
		if err := json.Unmarshal(line, &t); err != nil {
			return 0, &SnapshotError{Line: lineNo, Message: err.Error()}
		}
		if err := checkTask(lineNo, t); err != nil {
			return 0, err
		}
		if _, dup := seen[t.ID]; dup {
			return 0, &SnapshotError{Line: lineNo, Path: "/id", Message: "duplicate id " + t.ID}
		}
		seen[t.ID] = struct{}{}
		if !t.Completed {
			t.CompletedDate = nil
		}
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanner error: %w", err)
	}

	data, err := json.Marshal(tasks)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tasks: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := putRecord(ctx, tx, TasksKey, string(data)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	db.triggerChange(ctx)
	return len(tasks), nil
}
