package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/pkg/utils/json"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS history_records (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	tool_name   TEXT NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	arguments   TEXT NOT NULL DEFAULT 'null',
	result      TEXT NOT NULL DEFAULT 'null',
	status      TEXT NOT NULL,
	step_id     TEXT NOT NULL DEFAULT '',
	plan_id     TEXT NOT NULL DEFAULT '',
	plan_status TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_user_created ON history_records(user_id, created_at);
`

// HistoryStore is a SQLite-backed history log bounded to the most recent
// maxRecords entries per user. Appends beyond the bound delete the oldest
// rows for that user.
type HistoryStore struct {
	db         *sql.DB
	maxRecords int
}

// Open opens (or creates) the SQLite database at path.
func Open(path string, maxRecords int) (*HistoryStore, error) {
	if maxRecords <= 0 {
		maxRecords = 100
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer keeps SQLite's locking simple under concurrent runs.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &HistoryStore{db: db, maxRecords: maxRecords}, nil
}

// Close closes the underlying database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) RecordToolCall(ctx context.Context, record *entity.HistoryRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	argsJSON, err := json.MarshalString(record.Arguments)
	if err != nil {
		return "", fmt.Errorf("failed to marshal arguments: %w", err)
	}
	resultJSON, err := json.MarshalString(record.Result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_records
		 (id, user_id, session_id, tool_name, summary, arguments, result, status, step_id, plan_id, plan_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.SessionID, record.ToolName, record.Summary,
		argsJSON, resultJSON, record.Status, record.StepID, record.PlanID, record.PlanStatus, record.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	// Ring-buffer trim: keep only the newest maxRecords rows per user.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM history_records WHERE user_id = ? AND id NOT IN (
			SELECT id FROM history_records WHERE user_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		 )`,
		record.UserID, record.UserID, s.maxRecords)
	if err != nil {
		return "", fmt.Errorf("failed to trim records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *HistoryStore) UpdateRecord(ctx context.Context, userID, recordID string, update map[string]interface{}) (bool, error) {
	sets := ""
	args := make([]interface{}, 0, len(update)+2)
	for _, col := range []string{"summary", "status", "plan_status"} {
		val, ok := update[col].(string)
		if !ok {
			continue
		}
		if sets != "" {
			sets += ", "
		}
		sets += col + " = ?"
		args = append(args, val)
	}
	if result, ok := update["result"]; ok {
		resultJSON, err := json.MarshalString(result)
		if err != nil {
			return false, fmt.Errorf("failed to marshal result: %w", err)
		}
		if sets != "" {
			sets += ", "
		}
		sets += "result = ?"
		args = append(args, resultJSON)
	}
	if sets == "" {
		return false, nil
	}

	args = append(args, userID, recordID)
	res, err := s.db.ExecContext(ctx,
		"UPDATE history_records SET "+sets+" WHERE user_id = ? AND id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("failed to update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *HistoryStore) ListByUser(ctx context.Context, userID string) ([]*entity.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, session_id, tool_name, summary, arguments, result, status, step_id, plan_id, plan_status, created_at
		 FROM history_records WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*entity.HistoryRecord
	for rows.Next() {
		var r entity.HistoryRecord
		var argsJSON, resultJSON string
		if err := rows.Scan(&r.ID, &r.UserID, &r.SessionID, &r.ToolName, &r.Summary,
			&argsJSON, &resultJSON, &r.Status, &r.StepID, &r.PlanID, &r.PlanStatus, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.UnmarshalString(argsJSON, &r.Arguments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
		}
		if err := json.UnmarshalString(resultJSON, &r.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
