package store

const (
	queryUpsertRecord = `INSERT INTO records (id, category, subject, content, confidence, current, retired, source_ref, valid_from, valid_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			content = excluded.content,
			confidence = excluded.confidence,
			current = excluded.current,
			retired = excluded.retired,
			source_ref = excluded.source_ref,
			valid_from = excluded.valid_from,
			valid_until = excluded.valid_until,
			updated_at = excluded.updated_at`

	recordColumns = `id, category, subject, content, confidence, current, retired, source_ref, valid_from, valid_until, created_at, updated_at`

	// reads join the vector table so Record.Embedding comes back hydrated
	queryGetRecord = `SELECT ` + recordColumns + `, vec_records.embedding FROM records
		LEFT JOIN vec_records ON vec_records.record_rowid = records.rowid
		WHERE id = ?`

	queryRecordsByCategory = `SELECT ` + recordColumns + `, vec_records.embedding FROM records
		LEFT JOIN vec_records ON vec_records.record_rowid = records.rowid
		WHERE category = ? AND retired = 0`

	queryOrderSuffix = ` ORDER BY confidence DESC, updated_at DESC LIMIT ?`

	queryRetireRecord = `UPDATE records SET retired = 1, current = 0, updated_at = datetime('now') WHERE id = ?`

	queryRecordRowid = `SELECT rowid FROM records WHERE id = ?`

	queryUpsertEdge = `INSERT INTO edges (from_id, to_id, relation, confidence)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id, relation) DO UPDATE SET confidence = excluded.confidence`

	edgeColumns = `id, from_id, to_id, relation, confidence, created_at`

	queryEdgesFrom      = `SELECT ` + edgeColumns + ` FROM edges WHERE from_id = ?`
	queryEdgesTo        = `SELECT ` + edgeColumns + ` FROM edges WHERE to_id = ?`
	queryDeleteEdgesFor = `DELETE FROM edges WHERE from_id = ? OR to_id = ?`

	queryInsertVec = `INSERT INTO vec_records (record_rowid, embedding) VALUES (?, ?)`
	queryDeleteVec = `DELETE FROM vec_records WHERE record_rowid = ?`
)
