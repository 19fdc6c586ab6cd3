package store

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '{}',
    confidence REAL DEFAULT 0.8,
    current INTEGER DEFAULT 0,
    retired INTEGER DEFAULT 0,
    source_ref TEXT,
    valid_from DATETIME,
    valid_until DATETIME,
    created_at DATETIME DEFAULT (datetime('now')),
    updated_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_category ON records(category, retired);
CREATE INDEX IF NOT EXISTS idx_records_subject ON records(category, subject, retired);
CREATE INDEX IF NOT EXISTS idx_records_window ON records(category, valid_from, valid_until);

CREATE TABLE IF NOT EXISTS edges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    relation TEXT NOT NULL,
    confidence REAL DEFAULT 1.0,
    created_at DATETIME DEFAULT (datetime('now')),
    UNIQUE(from_id, to_id, relation)
);

CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
CREATE INDEX IF NOT EXISTS idx_edges_relation ON edges(relation);
`

const vecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_records USING vec0(
    record_rowid INTEGER PRIMARY KEY,
    embedding FLOAT[%d] distance_metric=cosine
);
`
