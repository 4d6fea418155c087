package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ldi/daybook/pkg/models"
)

// TasksKey is the record that holds the whole task collection.
const TasksKey = "todos"

func getRecord(ctx context.Context, q executor, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return value, true, nil
}

func putRecord(ctx context.Context, q executor, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

// LoadTasks reads the task collection. A missing record is an empty
// collection, not an error.
func (db *DB) LoadTasks(ctx context.Context) ([]models.Task, error) {
	value, ok, err := getRecord(ctx, db, TasksKey)
	if err != nil {
		return nil, err
	}
	tasks := []models.Task{}
	if !ok {
		return tasks, nil
	}
	if err := json.Unmarshal([]byte(value), &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// SaveTasks replaces the stored collection with tasks.
func (db *DB) SaveTasks(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := putRecord(ctx, db, TasksKey, string(data)); err != nil {
		return err
	}
	db.triggerChange(ctx)
	return nil
}
