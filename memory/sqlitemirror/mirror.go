// Package sqlitemirror is an optional secondary index for the Memory
// Router, implementing memory.Mirror over a pure-Go SQLite file. It exists
// so a long-running Core can answer ad-hoc lookups (by speaker, by topic)
// without scanning the in-memory tiers, without pulling in a server-based
// database.
package sqlitemirror

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dawnlabs/dawn-core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_chunk (
	id            TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	speaker       TEXT NOT NULL,
	topic         TEXT,
	content       TEXT NOT NULL,
	heat          REAL NOT NULL,
	entropy       REAL NOT NULL,
	scup          REAL NOT NULL,
	sigils        TEXT,
	traced        INTEGER NOT NULL,
	anchor_linked INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_chunk_speaker ON memory_chunk(speaker);
CREATE INDEX IF NOT EXISTS idx_memory_chunk_topic ON memory_chunk(topic);
CREATE INDEX IF NOT EXISTS idx_memory_chunk_timestamp ON memory_chunk(timestamp);
`

// Mirror is a SQLite-backed memory.Mirror. It is safe for concurrent use;
// database/sql pools its own connections.
type Mirror struct {
	db *sql.DB
}

// Open creates or attaches to a SQLite database file at path and ensures
// the schema exists.
func Open(path string) (*Mirror, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite mirror: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite mirror schema: %w", err)
	}
	return &Mirror{db: db}, nil
}

// Close releases the underlying database handle.
func (m *Mirror) Close() error { return m.db.Close() }

// Upsert writes c into the index, replacing any prior row with the same id.
// Memory chunks are immutable once routed, so this is only ever an insert
// in practice; ON CONFLICT DO UPDATE keeps the call idempotent for replay.
func (m *Mirror) Upsert(c model.MemoryChunk) error {
	sigils, err := json.Marshal(c.Sigils)
	if err != nil {
		return fmt.Errorf("marshal sigils for %s: %w", c.ID, err)
	}
	_, err = m.db.Exec(`
		INSERT INTO memory_chunk
			(id, timestamp, speaker, topic, content, heat, entropy, scup, sigils, traced, anchor_linked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp=excluded.timestamp, speaker=excluded.speaker, topic=excluded.topic,
			content=excluded.content, heat=excluded.heat, entropy=excluded.entropy,
			scup=excluded.scup, sigils=excluded.sigils, traced=excluded.traced,
			anchor_linked=excluded.anchor_linked`,
		c.ID, c.Timestamp.Format(timeLayout), c.Speaker.String(), c.Topic, c.Content,
		c.Pulse.Heat, c.Pulse.Entropy, c.Pulse.SCUP, string(sigils), c.Traced, c.AnchorLinked,
	)
	if err != nil {
		return fmt.Errorf("upsert memory chunk %s: %w", c.ID, err)
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// BySpeaker returns ids of chunks attributed to the given speaker, most
// recent first, capped at limit.
func (m *Mirror) BySpeaker(speaker string, limit int) ([]string, error) {
	return m.queryIDs(`SELECT id FROM memory_chunk WHERE speaker = ? ORDER BY timestamp DESC LIMIT ?`, speaker, limit)
}

// ByTopic returns ids of chunks tagged with the given topic, most recent
// first, capped at limit.
func (m *Mirror) ByTopic(topic string, limit int) ([]string, error) {
	return m.queryIDs(`SELECT id FROM memory_chunk WHERE topic = ? ORDER BY timestamp DESC LIMIT ?`, topic, limit)
}

func (m *Mirror) queryIDs(query string, args ...interface{}) ([]string, error) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memory mirror: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan memory mirror row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
