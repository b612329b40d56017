// Package archive persists completed polls to SQLite. The live session
// never reads from it; the coordinator hands each finished poll over
// asynchronously and a write failure only costs the historical record.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"classpoll/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS polls (
	id              TEXT PRIMARY KEY,
	question        TEXT NOT NULL,
	options         TEXT NOT NULL,
	time_limit      INTEGER NOT NULL,
	total_responses INTEGER NOT NULL,
	created_at      DATETIME NOT NULL,
	ended_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	poll_id      TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
	student_id   TEXT NOT NULL,
	student_name TEXT NOT NULL,
	answer       TEXT NOT NULL,
	answered_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_poll_id ON responses(poll_id);
`

// Archive is a write-behind store for finished polls. All methods are
// safe for concurrent use; *sql.DB serializes access to the single
// sqlite writer.
type Archive struct {
	db  *sql.DB
	dsn string
}

// Open opens (or creates) the archive database at dsn and applies the
// schema. Use ":memory:" for an ephemeral archive.
func Open(dsn string) (*Archive, error) {
	connStr := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", dsn)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// sqlite allows one writer; a single connection avoids lock churn
	// and keeps :memory: databases from silently forking per-conn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply archive schema: %w", err)
	}

	return &Archive{db: db, dsn: dsn}, nil
}

// SavePoll records a completed poll and its responses in one
// transaction. counts is accepted for interface symmetry but the
// per-option tallies are recomputed from responses on read, so only
// the raw responses are stored.
func (a *Archive) SavePoll(ctx context.Context, poll *types.Poll, counts map[string]int) error {
	if poll == nil {
		return fmt.Errorf("cannot archive nil poll")
	}

	optionsJSON, err := json.Marshal(poll.Options)
	if err != nil {
		return fmt.Errorf("failed to encode poll options: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO polls (id, question, options, time_limit, total_responses, created_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		poll.ID, poll.Question, string(optionsJSON), poll.TimeLimit,
		len(poll.Responses), poll.CreatedAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to archive poll %s: %w", poll.ID, err)
	}

	// Re-archiving the same poll replaces its responses wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE poll_id = ?`, poll.ID); err != nil {
		return fmt.Errorf("failed to clear responses for poll %s: %w", poll.ID, err)
	}

	for _, resp := range poll.Responses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO responses (poll_id, student_id, student_name, answer, answered_at)
			 VALUES (?, ?, ?, ?, ?)`,
			poll.ID, resp.StudentID, resp.StudentName, resp.Answer, resp.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to archive response for poll %s: %w", poll.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	log.Printf("Archived poll %s (%d responses)", poll.ID, len(poll.Responses))
	return nil
}

// PollCount returns the number of archived polls.
func (a *Archive) PollCount(ctx context.Context) (int, error) {
	var count int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count archived polls: %w", err)
	}
	return count, nil
}

// Summaries returns archived polls in ended order, newest first, with
// per-option counts rebuilt from the stored responses.
func (a *Archive) Summaries(ctx context.Context) ([]types.PollSummary, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, question, options, total_responses, created_at FROM polls ORDER BY ended_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived polls: %w", err)
	}
	defer rows.Close()

	var summaries []types.PollSummary
	for rows.Next() {
		var s types.PollSummary
		var optionsJSON string
		if err := rows.Scan(&s.ID, &s.Question, &optionsJSON, &s.TotalResponses, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived poll: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &s.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for poll %s: %w", s.ID, err)
		}
		s.Counts = make(map[string]int, len(s.Options))
		for _, opt := range s.Options {
			s.Counts[opt] = 0
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archived polls: %w", err)
	}

	for i := range summaries {
		if err := a.fillCounts(ctx, &summaries[i]); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

func (a *Archive) fillCounts(ctx context.Context, s *types.PollSummary) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT answer, COUNT(*) FROM responses WHERE poll_id = ? GROUP BY answer`, s.ID)
	if err != nil {
		return fmt.Errorf("failed to count responses for poll %s: %w", s.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var answer string
		var n int
		if err := rows.Scan(&answer, &n); err != nil {
			return fmt.Errorf("failed to scan response count for poll %s: %w", s.ID, err)
		}
		s.Counts[answer] = n
	}
	return rows.Err()
}

// Ping verifies the database is reachable.
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close archive database: %w", err)
	}
	return nil
}
