package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS work_units (
    repo            TEXT NOT NULL,
    branch          TEXT NOT NULL,
    worktree        TEXT,
    agent           TEXT,
    total_cost_usd  REAL NOT NULL,
    session_count   INTEGER NOT NULL,
    turn_count      INTEGER NOT NULL,
    computed_at     TEXT NOT NULL,
    PRIMARY KEY (repo, branch)
);

CREATE TABLE IF NOT EXISTS work_unit_models (
    repo                  TEXT NOT NULL,
    branch                TEXT NOT NULL,
    model                 TEXT NOT NULL,
    input_tokens          INTEGER NOT NULL,
    cache_creation_tokens INTEGER NOT NULL,
    cache_read_tokens     INTEGER NOT NULL,
    output_tokens         INTEGER NOT NULL,
    cost_usd              REAL NOT NULL,
    PRIMARY KEY (repo, branch, model)
);

CREATE INDEX IF NOT EXISTS idx_work_units_computed ON work_units(computed_at);
`
