// Package journal persists an audit trail of decisions to SQLite. Every
// facade call records one entry: which strategy answered, what it decided,
// and how long it took. Recording is best-effort; a journal failure never
// blocks a decision.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Decision kinds recorded in the journal.
const (
	KindValidation     = "validation"
	KindValuation      = "valuation"
	KindRecommendation = "recommendation"
	KindSubmission     = "submission"
)

// Strategies that can produce a decision.
const (
	StrategyEngine    = "engine"
	StrategyHeuristic = "heuristic"
)

// Entry is one journaled decision.
type Entry struct {
	ID        int64                  `json:"id"`
	RequestID string                 `json:"request_id"`
	Kind      string                 `json:"kind"`
	SubjectID string                 `json:"subject_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Strategy  string                 `json:"strategy"`
	Status    string                 `json:"status"`
	Elapsed   time.Duration          `json:"elapsed"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Journal is a SQLite-backed decision log.
type Journal struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	logger *zap.Logger
}

// Open initializes the journal database at the given path.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	j := &Journal{db: db, dbPath: path, logger: logger}
	if err := j.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return j, nil
}

// initialize creates the required tables.
func (j *Journal) initialize() error {
	decisionsTable := `
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		subject_id TEXT,
		user_id TEXT,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		elapsed_us INTEGER NOT NULL DEFAULT 0,
		detail TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_subject ON decisions(subject_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_kind ON decisions(kind);
	CREATE INDEX IF NOT EXISTS idx_decisions_request ON decisions(request_id);
	`

	if _, err := j.db.Exec(decisionsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Record appends one decision entry.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	detailJSON, _ := json.Marshal(e.Detail)

	_, err := j.db.Exec(
		`INSERT INTO decisions (request_id, kind, subject_id, user_id, strategy, status, elapsed_us, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Kind, e.SubjectID, e.UserID, e.Strategy, e.Status,
		e.Elapsed.Microseconds(), string(detailJSON),
	)
	return err
}

const entryColumns = "id, request_id, kind, subject_id, user_id, strategy, status, elapsed_us, detail, created_at"

// BySubject retrieves entries for one subject, newest first.
func (j *Journal) BySubject(subjectID string, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.Query(
		"SELECT "+entryColumns+" FROM decisions WHERE subject_id = ? ORDER BY id DESC LIMIT ?",
		subjectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Tail retrieves the most recent entries across all subjects, newest first.
func (j *Journal) Tail(limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.Query(
		"SELECT "+entryColumns+" FROM decisions ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByRequest retrieves the entries recorded under one request id.
func (j *Journal) ByRequest(requestID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(
		"SELECT "+entryColumns+" FROM decisions WHERE request_id = ? ORDER BY id",
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CountByKind returns how many entries each decision kind has accumulated.
func (j *Journal) CountByKind() (map[string]int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query("SELECT kind, COUNT(*) FROM decisions GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			continue
		}
		counts[kind] = count
	}

	return counts, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var elapsedUS int64
		var detailJSON string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Kind, &e.SubjectID, &e.UserID,
			&e.Strategy, &e.Status, &elapsedUS, &detailJSON, &e.CreatedAt); err != nil {
			continue
		}
		e.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		if detailJSON != "" {
			json.Unmarshal([]byte(detailJSON), &e.Detail)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
