package sql

import _ "embed"

//go:embed schema.sql
var Schema string

// TaskSchema is the JSON Schema every task line of a snapshot must satisfy.
//
//go:embed task.schema.json
var TaskSchema string
