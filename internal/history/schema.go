package history

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per CLI or API invocation
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    url_count INTEGER NOT NULL DEFAULT 0
);

-- One row per analyzed URL within a run
CREATE TABLE IF NOT EXISTS results (
    result_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    state TEXT NOT NULL,
    status_code INTEGER,
    total_time REAL,
    page_size INTEGER,
    critical INTEGER NOT NULL DEFAULT 0,
    warning INTEGER NOT NULL DEFAULT 0,
    info INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    insights TEXT NOT NULL DEFAULT '[]', -- JSON array of insights
    recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_url ON results(url, result_id);
`
