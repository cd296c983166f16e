// Package journal keeps a local history of reverse-prompt runs. It is
// written after each run and read back by the history command; requests
// never consult it.
package journal

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("reprompt.journal")

const FileName = "journal.db"

type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	URI          string
	Model        string
	ContextChars int
	Outcome      Outcome
	Error        string
	Response     string
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Journal{db: db}, nil
}

// OpenDir opens the journal file inside dir.
func OpenDir(dir string) (*Journal, error) {
	return Open(filepath.Join(dir, FileName))
}

// Record stores a run. A run without an ID is given one.
func (j *Journal) Record(run Run) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return "", ErrClosed
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	_, err := j.db.Exec(`
        INSERT INTO runs (id, started_at, finished_at, uri, model, context_chars, outcome, error, response)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.URI, run.Model,
		run.ContextChars, string(run.Outcome), run.Error, run.Response)
	if err != nil {
		return "", fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(limit int) ([]Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := j.db.Query(`
        SELECT id, started_at, finished_at, uri, model, context_chars, outcome, error, response
        FROM runs
        ORDER BY started_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		var outcome string
		if err := rows.Scan(&run.ID, &started, &finished, &run.URI, &run.Model,
			&run.ContextChars, &outcome, &run.Error, &run.Response); err != nil {
			return nil, err
		}
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(finished)
		run.Outcome = Outcome(outcome)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}
