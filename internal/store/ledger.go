// Package store persists computed work-unit costs to a SQLite ledger.
// The ledger is opt-in bookkeeping for operators; the cost engine itself
// never reads it, so repeated computations stay idempotent.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/timogilvie/agentcost/internal/cost"
)

// Ledger is a SQLite-backed record of computed work-unit costs.
type Ledger struct {
	db *sql.DB
}

// DefaultPath returns the XDG-compliant ledger location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentcost", "history.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "agentcost", "history.db")
}

// Open opens or creates the ledger database at the given path.
func Open(dbPath string) (*Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Entry is one saved work-unit cost row.
type Entry struct {
	Repo         string
	Branch       string
	Worktree     string
	Agent        string
	TotalCostUSD float64
	SessionCount int
	TurnCount    int
	ComputedAt   time.Time
}

// Save records a computed result, replacing any previous row for the same
// repo + branch.
func (l *Ledger) Save(req cost.Request, res *cost.Result) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = tx.Exec(`INSERT OR REPLACE INTO work_units
		(repo, branch, worktree, agent, total_cost_usd, session_count, turn_count, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.RepoDir, req.BranchName, req.WorktreePath, req.AgentType,
		res.TotalCostUSD, res.SessionCount, res.TurnCount, now,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM work_unit_models WHERE repo = ? AND branch = ?",
		req.RepoDir, req.BranchName)
	if err != nil {
		return err
	}

	// Stable insert order keeps the ledger diffable across runs.
	models := make([]string, 0, len(res.Models))
	for model := range res.Models {
		models = append(models, model)
	}
	sort.Strings(models)

	for _, model := range models {
		mc := res.Models[model]
		_, err = tx.Exec(`INSERT INTO work_unit_models
			(repo, branch, model, input_tokens, cache_creation_tokens,
			 cache_read_tokens, output_tokens, cost_usd)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			req.RepoDir, req.BranchName, model,
			mc.InputTokens, mc.CacheCreationTokens, mc.CacheReadTokens,
			mc.OutputTokens, mc.CostUSD,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Recent returns the most recently computed entries, newest first.
func (l *Ledger) Recent(limit int) ([]Entry, error) {
	rows, err := l.db.Query(`SELECT repo, branch, worktree, agent,
		total_cost_usd, session_count, turn_count, computed_at
		FROM work_units ORDER BY computed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var computedAt string
		if err := rows.Scan(&e.Repo, &e.Branch, &e.Worktree, &e.Agent,
			&e.TotalCostUSD, &e.SessionCount, &e.TurnCount, &computedAt); err != nil {
			return nil, err
		}
		e.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
